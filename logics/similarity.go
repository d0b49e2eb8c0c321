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
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/knn/dataset"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Similarity scores how alike two entities of a ratings matrix are. Both entities must be
// rows of the matrix. A higher score means more similar.
type Similarity func(m dataset.Matrix, a, b string) float64

const (
	SimilarityEuclidean = "euclidean"
	SimilarityPearson   = "pearson"
	SimilarityTanimoto  = "tanimoto"
	SimilarityCosine    = "cosine"
)

// ParseSimilarity returns the similarity function of a name.
func ParseSimilarity(name string) (Similarity, error) {
	switch name {
	case SimilarityEuclidean:
		return Euclidean, nil
	case SimilarityPearson:
		return Pearson, nil
	case SimilarityTanimoto:
		return Tanimoto, nil
	case SimilarityCosine:
		return Cosine, nil
	}
	return nil, errors.NotValidf("similarity %v", name)
}

// shared returns the counterparts rated by both rows in ascending order. Summing in a fixed
// order keeps scores reproducible across calls.
func shared(ratingsA, ratingsB map[string]float64) []string {
	if len(ratingsA) > len(ratingsB) {
		ratingsA, ratingsB = ratingsB, ratingsA
	}
	var counterparts []string
	for counterpart := range ratingsA {
		if _, exist := ratingsB[counterpart]; exist {
			counterparts = append(counterparts, counterpart)
		}
	}
	sort.Strings(counterparts)
	return counterparts
}

// Euclidean is 1/(1+d) where d is the sum of squared differences over shared
// counterparts. It is 0 if nothing is shared.
func Euclidean(m dataset.Matrix, a, b string) float64 {
	ratingsA, ratingsB := m[a], m[b]
	counterparts := shared(ratingsA, ratingsB)
	if len(counterparts) == 0 {
		return 0
	}
	sumOfSquares := 0.0
	for _, counterpart := range counterparts {
		diff := ratingsA[counterpart] - ratingsB[counterpart]
		sumOfSquares += diff * diff
	}
	return 1 / (1 + sumOfSquares)
}

// Pearson is the correlation coefficient over shared counterparts. It is 0 if nothing is
// shared or either side is constant.
func Pearson(m dataset.Matrix, a, b string) float64 {
	ratingsA, ratingsB := m[a], m[b]
	counterparts := shared(ratingsA, ratingsB)
	if len(counterparts) == 0 {
		return 0
	}
	n := float64(len(counterparts))
	var sumA, sumB, sumSqA, sumSqB, sumProd float64
	for _, counterpart := range counterparts {
		ratingA, ratingB := ratingsA[counterpart], ratingsB[counterpart]
		sumA += ratingA
		sumB += ratingB
		sumSqA += ratingA * ratingA
		sumSqB += ratingB * ratingB
		sumProd += ratingA * ratingB
	}
	numerator := sumProd - sumA*sumB/n
	variance := (sumSqA - sumA*sumA/n) * (sumSqB - sumB*sumB/n)
	if variance <= 0 {
		return 0
	}
	denominator := math.Sqrt(variance)
	if denominator == 0 {
		return 0
	}
	// rounding may push the ratio slightly out of range
	return math.Max(-1, math.Min(1, numerator/denominator))
}

// Tanimoto is the number of shared counterparts divided by the number of counterparts
// rated by either entity. Rating values are ignored.
func Tanimoto(m dataset.Matrix, a, b string) float64 {
	ratingsA, ratingsB := m[a], m[b]
	if len(ratingsA) == 0 || len(ratingsB) == 0 {
		return 0
	}
	setA := mapset.NewThreadUnsafeSetWithSize[string](len(ratingsA))
	for counterpart := range ratingsA {
		setA.Add(counterpart)
	}
	setB := mapset.NewThreadUnsafeSetWithSize[string](len(ratingsB))
	for counterpart := range ratingsB {
		setB.Add(counterpart)
	}
	shared := setA.Intersect(setB).Cardinality()
	if shared == 0 {
		return 0
	}
	return float64(shared) / float64(setA.Cardinality()+setB.Cardinality()-shared)
}

// Cosine is the cosine of the angle between two rating rows, treating missing ratings as
// zero. It is 0 if nothing is shared.
func Cosine(m dataset.Matrix, a, b string) float64 {
	ratingsA, ratingsB := m[a], m[b]
	var dot float64
	for _, counterpart := range shared(ratingsA, ratingsB) {
		dot += ratingsA[counterpart] * ratingsB[counterpart]
	}
	normA, normB := squaredNorm(ratingsA), squaredNorm(ratingsB)
	if dot == 0 || normA == 0 || normB == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, dot/math.Sqrt(normA*normB)))
}

func squaredNorm(ratings map[string]float64) float64 {
	counterparts := lo.Keys(ratings)
	sort.Strings(counterparts)
	var norm float64
	for _, counterpart := range counterparts {
		norm += ratings[counterpart] * ratings[counterpart]
	}
	return norm
}
