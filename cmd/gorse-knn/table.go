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

package main

import (
	"io"
	"strconv"

	"github.com/gorse-io/knn/storage/cache"
	"github.com/olekukonko/tablewriter"
)

// printScores renders scores as a ranked table.
func printScores(w io.Writer, name string, scores []cache.Score) error {
	table := tablewriter.NewWriter(w)
	table.Header("rank", name, "score")
	for i, score := range scores {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			score.Id,
			strconv.FormatFloat(score.Score, 'f', 4, 64),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
