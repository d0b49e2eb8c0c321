// Copyright 2022 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package data

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/knn/base"
	"github.com/juju/errors"
)

// CSV reads ratings from a file of user, item, rating lines. It is read-only.
type CSV struct {
	path      string
	separator string
	header    bool
}

func (c *CSV) Init() error {
	return nil
}

func (c *CSV) Ping() error {
	_, err := os.Stat(c.path)
	return errors.Trace(err)
}

func (c *CSV) Close() error {
	return nil
}

func (c *CSV) Purge() error {
	return errors.Trace(ErrUnsupported)
}

func (c *CSV) BatchInsertRatings(_ context.Context, _ []Rating) error {
	return errors.Trace(ErrUnsupported)
}

func (c *CSV) GetRatings(ctx context.Context) ([]Rating, error) {
	file, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	var (
		ratings []Rating
		lineErr error
	)
	sc := bufio.NewScanner(file)
	err = base.ReadLines(sc, c.separator, func(lineNumber int, fields []string) bool {
		if c.header && lineNumber == 0 {
			return true
		}
		if err := ctx.Err(); err != nil {
			lineErr = err
			return false
		}
		// skip blank lines
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		if len(fields) < 3 {
			lineErr = errors.Errorf("line %d: expect 3 fields but got %d", lineNumber+1, len(fields))
			return false
		}
		var rating Rating
		rating.UserId = strings.TrimSpace(fields[0])
		if err := base.ValidateId(rating.UserId); err != nil {
			lineErr = errors.Annotatef(err, "line %d", lineNumber+1)
			return false
		}
		rating.ItemId = strings.TrimSpace(fields[1])
		if err := base.ValidateId(rating.ItemId); err != nil {
			lineErr = errors.Annotatef(err, "line %d", lineNumber+1)
			return false
		}
		value, parseErr := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if parseErr != nil {
			lineErr = errors.Annotatef(parseErr, "line %d", lineNumber+1)
			return false
		}
		rating.Value = value
		ratings = append(ratings, rating)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if lineErr != nil {
		return nil, lineErr
	}
	return ratings, nil
}
