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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const LabelStep = "step"

var (
	EntitiesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "entities_total",
	})
	BuildNeighborhoodsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "build_neighborhoods_total",
	})
	BuildStepSecondsVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "build_step_seconds",
	}, []string{LabelStep})
	LastBuildTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "last_build_timestamp",
	})
	NeighborCacheHitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "neighbor_cache_hit_total",
	})
	RecommendSecondsVec = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gorse_knn",
		Subsystem: "worker",
		Name:      "recommend_seconds",
	}, []string{LabelStep})
)
