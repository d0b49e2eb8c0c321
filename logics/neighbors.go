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

	"github.com/gorse-io/knn/common/heap"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/juju/errors"
)

// TopMatches ranks every other entity of the matrix by similarity to an entity and returns
// the n most similar in descending order. Equal scores are ordered by id in descending
// order.
func TopMatches(m dataset.Matrix, entity string, n int, sim Similarity) ([]cache.Score, error) {
	if !m.Has(entity) {
		return nil, errors.NotFoundf("entity %v", entity)
	}
	filter := heap.NewTopKFilter[string, float64](n)
	for _, other := range m.Entities() {
		if other != entity {
			filter.Push(other, sim(m, entity, other))
		}
	}
	elems := filter.PopAll()
	scores := make([]cache.Score, len(elems))
	for i, elem := range elems {
		scores[i] = cache.Score{Id: elem.Value, Score: elem.Weight}
	}
	return scores, nil
}

// NeighborStore provides precomputed neighbor lists.
type NeighborStore interface {
	// GetNeighbors returns the neighbor list of an entity. It fails with a NotFound error if
	// the entity has no neighbor list.
	GetNeighbors(ctx context.Context, entity string) ([]cache.Score, error)
}

// Neighborhoods maps entities to neighbor lists.
type Neighborhoods map[string][]cache.Score

func (hoods Neighborhoods) GetNeighbors(_ context.Context, entity string) ([]cache.Score, error) {
	neighbors, exist := hoods[entity]
	if !exist {
		return nil, errors.NotFoundf("neighbors of %v", entity)
	}
	return neighbors, nil
}

type cacheStore struct {
	database   cache.Database
	collection string
}

// NewCacheStore reads neighbor lists of a collection from a cache database.
func NewCacheStore(database cache.Database, collection string) NeighborStore {
	return &cacheStore{database: database, collection: collection}
}

func (s *cacheStore) GetNeighbors(ctx context.Context, entity string) ([]cache.Score, error) {
	neighbors, err := s.database.GetNeighbors(ctx, s.collection, entity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return neighbors, nil
}
