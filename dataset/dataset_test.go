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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func newCritics() Matrix {
	return Matrix{
		"Lisa Rose": {
			"Lady in the Water": 2.5, "Snakes on a Plane": 3.5, "Just My Luck": 3.0,
			"Superman Returns": 3.5, "You, Me and Dupree": 2.5, "The Night Listener": 3.0,
		},
		"Gene Seymour": {
			"Lady in the Water": 3.0, "Snakes on a Plane": 3.5, "Just My Luck": 1.5,
			"Superman Returns": 5.0, "The Night Listener": 3.0, "You, Me and Dupree": 3.5,
		},
		"Toby": {"Snakes on a Plane": 4.5, "You, Me and Dupree": 1.0, "Superman Returns": 4.0},
	}
}

func TestMatrix_Transpose(t *testing.T) {
	m := newCritics()
	movies := m.Transpose()
	assert.Len(t, movies, 6)
	assert.Equal(t, map[string]float64{
		"Lisa Rose":    3.5,
		"Gene Seymour": 5.0,
		"Toby":         4.0,
	}, movies["Superman Returns"])
	assert.Equal(t, m.Count(), movies.Count())
	// transpose twice
	assert.Equal(t, m, movies.Transpose())
	// the source is untouched
	assert.Equal(t, newCritics(), m)
}

func TestMatrix_TransposeEmptyRow(t *testing.T) {
	m := Matrix{"a": {"x": 1}, "b": {}}
	assert.Equal(t, Matrix{"a": {"x": 1}}, m.Transpose().Transpose())
}

func TestMatrix_Lookup(t *testing.T) {
	m := Matrix{"a": {"x": 0, "y": 2}}
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("b"))
	// zero is a rating
	rating, exist := m.Rating("a", "x")
	assert.True(t, exist)
	assert.Zero(t, rating)
	_, exist = m.Rating("a", "z")
	assert.False(t, exist)
	_, exist = m.Rating("b", "x")
	assert.False(t, exist)
	// ratings of an unknown entity
	_, err := m.Ratings("b")
	assert.True(t, errors.Is(err, errors.NotFound))
	ratings, err := m.Ratings("a")
	assert.NoError(t, err)
	assert.Len(t, ratings, 2)
}

func TestMatrix_Keys(t *testing.T) {
	m := newCritics()
	assert.Equal(t, []string{"Gene Seymour", "Lisa Rose", "Toby"}, m.Entities())
	assert.Equal(t, []string{
		"Just My Luck", "Lady in the Water", "Snakes on a Plane",
		"Superman Returns", "The Night Listener", "You, Me and Dupree",
	}, m.Counterparts())
}

func TestMatrix_Clone(t *testing.T) {
	m := newCritics()
	c := m.Clone()
	c["Toby"]["Just My Luck"] = 1
	assert.NotContains(t, m["Toby"], "Just My Luck")
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	b.Add("1", "a", 1)
	b.Add("1", "b", 2)
	b.Add("2", "a", 3)
	b.Add("1", "a", 4)
	b.AddEntity("3")
	b.AddEntity("2")
	assert.Equal(t, 4, b.Len())
	assert.Equal(t, Matrix{
		"1": {"a": 4, "b": 2},
		"2": {"a": 3},
		"3": {},
	}, b.Build())
}
