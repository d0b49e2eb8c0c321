// Copyright 2021 gorse Project Authors
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

package worker

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gorse-io/knn/base/json"
	"github.com/juju/errors"
)

// LocalCache records the last neighborhood build of the worker node.
type LocalCache struct {
	path       string
	Collection string    `json:"collection"`
	Similarity string    `json:"similarity"`
	N          int       `json:"n"`
	Entities   int       `json:"entities"`
	BuildTime  time.Time `json:"build_time"`
}

// LoadLocalCache loads cache from a local file.
func LoadLocalCache(path string) (*LocalCache, error) {
	state := &LocalCache{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, errors.NotFoundf("cache file %s", path)
		}
		return state, errors.Trace(err)
	}
	if err = json.Unmarshal(data, state); err != nil {
		return state, errors.Trace(err)
	}
	return state, nil
}

// WriteLocalCache writes cache to a local file.
func (c *LocalCache) WriteLocalCache() error {
	// create parent folder if not exists
	parent := filepath.Dir(c.path)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		err = os.MkdirAll(parent, os.ModePerm)
		if err != nil {
			return errors.Trace(err)
		}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(c.path, data, 0644))
}

// Matches checks whether the recorded build used the same collection and similarity.
func (c *LocalCache) Matches(collection, similarity string) bool {
	return c.Collection == collection && c.Similarity == similarity
}
