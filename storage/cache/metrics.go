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

package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SetNeighborsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gorse_knn",
		Subsystem: "cache",
		Name:      "cache_set_neighbors_seconds",
	})
	GetNeighborsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gorse_knn",
		Subsystem: "cache",
		Name:      "cache_get_neighbors_seconds",
	})
	ClearNeighborsSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gorse_knn",
		Subsystem: "cache",
		Name:      "cache_clear_neighbors_seconds",
	})

	SetNeighborsTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gorse_knn",
		Subsystem: "cache",
		Name:      "cache_set_neighbors_times",
	})
	GetNeighborsTimes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gorse_knn",
		Subsystem: "cache",
		Name:      "cache_get_neighbors_times",
	})
)
