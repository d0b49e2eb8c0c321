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

package logics

import (
	"context"

	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/juju/errors"
)

// aggregator accumulates similarity-weighted ratings of counterparts unrated by an entity.
type aggregator struct {
	rated   map[string]float64
	totals  map[string]float64
	simSums map[string]float64
}

func newAggregator(rated map[string]float64) *aggregator {
	return &aggregator{
		rated:   rated,
		totals:  make(map[string]float64),
		simSums: make(map[string]float64),
	}
}

// add folds in the ratings of a neighbor. Neighbors with non-positive similarity are
// ignored.
func (a *aggregator) add(similarity float64, ratings map[string]float64) {
	if similarity <= 0 {
		return
	}
	for counterpart, rating := range ratings {
		if _, exist := a.rated[counterpart]; exist {
			continue
		}
		a.totals[counterpart] += rating * similarity
		a.simSums[counterpart] += similarity
	}
}

// scores returns weighted averages in descending order.
func (a *aggregator) scores() []cache.Score {
	scores := make([]cache.Score, 0, len(a.totals))
	for counterpart, total := range a.totals {
		scores = append(scores, cache.Score{Id: counterpart, Score: total / a.simSums[counterpart]})
	}
	cache.SortScores(scores)
	return scores
}

// Recommend predicts ratings of counterparts unrated by an entity from every other entity
// with positive similarity. A counterpart counts as rated if the entity has a rating for
// it, zero included.
func Recommend(m dataset.Matrix, entity string, sim Similarity) ([]cache.Score, error) {
	rated, err := m.Ratings(entity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	agg := newAggregator(rated)
	for _, other := range m.Entities() {
		if other != entity {
			agg.add(sim(m, entity, other), m[other])
		}
	}
	return agg.scores(), nil
}

// RecommendCached predicts ratings like Recommend but only consults the precomputed
// neighbors of the entity. Neighbors no longer in the matrix are skipped.
func RecommendCached(ctx context.Context, m dataset.Matrix, store NeighborStore, entity string) ([]cache.Score, error) {
	rated, err := m.Ratings(entity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	neighbors, err := store.GetNeighbors(ctx, entity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	agg := newAggregator(rated)
	for _, neighbor := range neighbors {
		if neighbor.Id == entity {
			continue
		}
		if ratings, exist := m[neighbor.Id]; exist {
			agg.add(neighbor.Score, ratings)
		}
	}
	return agg.scores(), nil
}
