// Copyright 2023 gorse Project Authors
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
	"runtime"

	"github.com/gorse-io/knn/base/log"
	"github.com/gorse-io/knn/base/progress"
	"github.com/gorse-io/knn/common/parallel"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const SpanBuildNeighborhoods = "build_neighborhoods"

type BuildOptions struct {
	// Jobs is the number of workers. Defaults to the number of CPUs.
	Jobs int
	// ProgressInterval is the number of entities between two progress reports.
	ProgressInterval int
	// Progress receives progress reports if not nil. It never affects results.
	Progress progress.Callback
	// Tracer records the build span if not nil.
	Tracer *progress.Tracer
}

// BuildNeighborhoods computes the top n neighbors of every entity. Entities are processed
// in parallel against the read-only matrix; each result is written to its own slot and the
// neighborhoods are assembled after all workers finish.
func BuildNeighborhoods(ctx context.Context, m dataset.Matrix, n int, sim Similarity, opts BuildOptions) (Neighborhoods, error) {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Tracer == nil {
		opts.Tracer = progress.NewTracer("logics")
	}
	entities := m.Entities()
	span := opts.Tracer.Start(SpanBuildNeighborhoods, len(entities), opts.ProgressInterval, opts.Progress)
	results := make([][]cache.Score, len(entities))
	err := parallel.Parallel(ctx, len(entities), opts.Jobs, func(_, jobId int) error {
		scores, err := TopMatches(m, entities[jobId], n, sim)
		if err != nil {
			return errors.Trace(err)
		}
		results[jobId] = scores
		span.Add(1)
		return nil
	})
	if err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	span.End()
	hoods := make(Neighborhoods, len(entities))
	for i, entity := range entities {
		hoods[entity] = results[i]
	}
	return hoods, nil
}

// SaveNeighborhoods replaces a collection of a cache database with neighborhoods.
func SaveNeighborhoods(ctx context.Context, database cache.Database, collection string, hoods Neighborhoods) error {
	if err := database.ClearNeighbors(ctx, collection); err != nil {
		return errors.Trace(err)
	}
	for entity, neighbors := range hoods {
		if err := database.SetNeighbors(ctx, collection, entity, neighbors); err != nil {
			return errors.Trace(err)
		}
	}
	log.Logger().Debug("save neighborhoods",
		zap.String("collection", collection),
		zap.Int("n_entities", len(hoods)))
	return nil
}
