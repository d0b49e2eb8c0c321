// Copyright 2026 gorse Project Authors
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

package dataset

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Matrix is a sparse ratings matrix: entity -> counterpart -> rating. An entity is a user
// and a counterpart an item in user-based orientation, and the other way round after
// Transpose. A missing rating is a missing key; zero is a valid rating.
type Matrix map[string]map[string]float64

// Entities returns the row keys in ascending order.
func (m Matrix) Entities() []string {
	entities := lo.Keys(m)
	sort.Strings(entities)
	return entities
}

// Counterparts returns all column keys in ascending order.
func (m Matrix) Counterparts() []string {
	counterparts := mapset.NewThreadUnsafeSet[string]()
	for _, ratings := range m {
		for counterpart := range ratings {
			counterparts.Add(counterpart)
		}
	}
	result := counterparts.ToSlice()
	sort.Strings(result)
	return result
}

// Has checks whether an entity is a row of the matrix.
func (m Matrix) Has(entity string) bool {
	_, exist := m[entity]
	return exist
}

// Ratings returns the ratings of an entity. The returned map must not be modified.
func (m Matrix) Ratings(entity string) (map[string]float64, error) {
	ratings, exist := m[entity]
	if !exist {
		return nil, errors.NotFoundf("entity %v", entity)
	}
	return ratings, nil
}

// Rating returns the rating of an entity on a counterpart. The second value reports
// whether the rating exists.
func (m Matrix) Rating(entity, counterpart string) (float64, bool) {
	rating, exist := m[entity][counterpart]
	return rating, exist
}

// Count returns the number of ratings.
func (m Matrix) Count() int {
	count := 0
	for _, ratings := range m {
		count += len(ratings)
	}
	return count
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	c := make(Matrix, len(m))
	for entity, ratings := range m {
		c[entity] = make(map[string]float64, len(ratings))
		for counterpart, rating := range ratings {
			c[entity][counterpart] = rating
		}
	}
	return c
}

// Transpose flips entities and counterparts:
//
//	t[c][e] = m[e][c]
//
// Entities without ratings disappear, so Transpose is its own inverse only for matrices
// without empty rows.
func (m Matrix) Transpose() Matrix {
	t := make(Matrix)
	for entity, ratings := range m {
		for counterpart, rating := range ratings {
			row, exist := t[counterpart]
			if !exist {
				row = make(map[string]float64)
				t[counterpart] = row
			}
			row[entity] = rating
		}
	}
	return t
}

// Builder collects ratings into a Matrix. Later ratings overwrite earlier ones.
type Builder struct {
	matrix Matrix
	count  int
}

func NewBuilder() *Builder {
	return &Builder{matrix: make(Matrix)}
}

// Add appends a rating.
func (b *Builder) Add(entity, counterpart string, rating float64) {
	row, exist := b.matrix[entity]
	if !exist {
		row = make(map[string]float64)
		b.matrix[entity] = row
	}
	row[counterpart] = rating
	b.count++
}

// AddEntity registers an entity without ratings.
func (b *Builder) AddEntity(entity string) {
	if _, exist := b.matrix[entity]; !exist {
		b.matrix[entity] = make(map[string]float64)
	}
}

// Len returns the number of ratings added, including overwritten ones.
func (b *Builder) Len() int {
	return b.count
}

// Build returns the collected matrix. The builder must not be used afterwards.
func (b *Builder) Build() Matrix {
	m := b.matrix
	b.matrix = nil
	return m
}
