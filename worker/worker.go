// Copyright 2020 gorse Project Authors
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
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorse-io/knn/base/log"
	"github.com/gorse-io/knn/base/progress"
	"github.com/gorse-io/knn/config"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/logics"
	"github.com/gorse-io/knn/storage"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/gorse-io/knn/storage/data"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	StepLoad  = "load"
	StepBuild = "build"
	StepSave  = "save"

	StepDirect = "direct"
	StepCached = "cached"

	pingTries = 3
)

// Worker loads ratings, builds neighborhoods and answers queries.
type Worker struct {
	tracer      *progress.Tracer
	config      *config.Config
	similarity  logics.Similarity
	dataClient  data.Database
	cacheClient cache.Database
	cacheFile   string
	neighbors   *NeighborCache

	mu     sync.RWMutex
	matrix dataset.Matrix
}

// NewWorker connects to the databases in the configuration.
func NewWorker(cfg *config.Config, cacheFile string) (*Worker, error) {
	dataClient, err := data.Open(cfg.Database.DataStore, cfg.Database.TablePrefix,
		storage.WithSeparator(cfg.Database.CSVSeparator),
		storage.WithHeader(cfg.Database.CSVHeader),
		storage.WithMaxOpenConns(cfg.Database.MaxOpenConns),
		storage.WithMaxIdleConns(cfg.Database.MaxIdleConns))
	if err != nil {
		return nil, errors.Annotatef(err, "failed to connect data store %v", log.RedactDBURL(cfg.Database.DataStore))
	}
	if err = dataClient.Init(); err != nil {
		return nil, errors.Trace(err)
	}
	cacheClient, err := cache.Open(cfg.Database.CacheStore, cfg.Database.TablePrefix)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to connect cache store %v", log.RedactDBURL(cfg.Database.CacheStore))
	}
	// the cache store may still be starting
	if _, err = backoff.Retry(context.Background(), func() (struct{}, error) {
		return struct{}{}, cacheClient.Ping()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(pingTries)); err != nil {
		return nil, errors.Annotatef(err, "failed to ping cache store %v", log.RedactDBURL(cfg.Database.CacheStore))
	}
	if err = cacheClient.Init(); err != nil {
		return nil, errors.Trace(err)
	}
	return NewWorkerWithClients(cfg, dataClient, cacheClient, cacheFile)
}

// NewWorkerWithClients creates a worker on connected databases.
func NewWorkerWithClients(cfg *config.Config, dataClient data.Database, cacheClient cache.Database, cacheFile string) (*Worker, error) {
	similarity, err := logics.ParseSimilarity(cfg.Neighbors.Similarity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	w := &Worker{
		tracer:      progress.NewTracer("worker"),
		config:      cfg,
		similarity:  similarity,
		dataClient:  dataClient,
		cacheClient: cacheClient,
		cacheFile:   cacheFile,
	}
	if cfg.Recommend.CacheTTL > 0 {
		w.neighbors = NewNeighborCache(logics.NewCacheStore(cacheClient, cfg.Neighbors.Collection()), cfg.Recommend.CacheTTL)
	}
	return w, nil
}

func (w *Worker) Tracer() *progress.Tracer {
	return w.tracer
}

// Close closes database connections.
func (w *Worker) Close() error {
	dataErr := w.dataClient.Close()
	if err := w.cacheClient.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(dataErr)
}

// Load reads ratings from the data store. Ratings are transposed in item mode.
func (w *Worker) Load(ctx context.Context) error {
	start := time.Now()
	m, err := data.LoadRatings(ctx, w.dataClient)
	if err != nil {
		return errors.Trace(err)
	}
	if w.config.Neighbors.Mode == config.ModeItem {
		m = m.Transpose()
	}
	w.mu.Lock()
	w.matrix = m
	w.mu.Unlock()
	EntitiesTotal.Set(float64(len(m)))
	BuildStepSecondsVec.WithLabelValues(StepLoad).Set(time.Since(start).Seconds())
	log.Logger().Info("load ratings matrix",
		zap.String("mode", w.config.Neighbors.Mode),
		zap.Int("n_entities", len(m)),
		zap.Int("n_ratings", m.Count()))
	return nil
}

func (w *Worker) getMatrix() (dataset.Matrix, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.matrix == nil {
		return nil, errors.New("ratings not loaded")
	}
	return w.matrix, nil
}

// Build precomputes neighborhoods of all entities and replaces the collection of the
// configured mode in the cache store.
func (w *Worker) Build(ctx context.Context, callback progress.Callback) error {
	m, err := w.getMatrix()
	if err != nil {
		return errors.Trace(err)
	}
	collection := w.config.Neighbors.Collection()
	log.Logger().Info("start building neighborhoods",
		zap.String("collection", collection),
		zap.String("similarity", w.config.Neighbors.Similarity),
		zap.Int("n", w.config.Neighbors.N),
		zap.Int("n_entities", len(m)))
	start := time.Now()
	hoods, err := logics.BuildNeighborhoods(ctx, m, w.config.Neighbors.N, w.similarity, logics.BuildOptions{
		Jobs:             w.config.Neighbors.Jobs,
		ProgressInterval: w.config.Neighbors.ProgressInterval,
		Progress: func(done, total int) {
			log.Logger().Debug("building neighborhoods", zap.Int("done", done), zap.Int("total", total))
			if callback != nil {
				callback(done, total)
			}
		},
		Tracer: w.tracer,
	})
	if err != nil {
		log.Logger().Error("failed to build neighborhoods", zap.Error(err))
		return errors.Trace(err)
	}
	buildTime := time.Since(start)
	BuildStepSecondsVec.WithLabelValues(StepBuild).Set(buildTime.Seconds())

	start = time.Now()
	if err = logics.SaveNeighborhoods(ctx, w.cacheClient, collection, hoods); err != nil {
		log.Logger().Error("failed to save neighborhoods", zap.Error(err))
		return errors.Trace(err)
	}
	BuildStepSecondsVec.WithLabelValues(StepSave).Set(time.Since(start).Seconds())
	if w.neighbors != nil {
		w.neighbors.Reset()
	}
	BuildNeighborhoodsTotal.Set(float64(len(hoods)))
	LastBuildTimestamp.SetToCurrentTime()
	log.Logger().Info("complete building neighborhoods",
		zap.String("collection", collection),
		zap.Int("n_entities", len(hoods)),
		zap.Duration("build_time", buildTime),
		zap.Duration("save_time", time.Since(start)))

	if w.cacheFile != "" {
		state := &LocalCache{
			path:       w.cacheFile,
			Collection: collection,
			Similarity: w.config.Neighbors.Similarity,
			N:          w.config.Neighbors.N,
			Entities:   len(hoods),
			BuildTime:  time.Now().UTC(),
		}
		if err = state.WriteLocalCache(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// checkLocalCache warns if cached neighborhoods were built with another metric.
func (w *Worker) checkLocalCache() {
	if w.cacheFile == "" {
		return
	}
	state, err := LoadLocalCache(w.cacheFile)
	if err != nil {
		log.Logger().Warn("failed to load local cache", zap.String("path", w.cacheFile), zap.Error(err))
		return
	}
	if !state.Matches(w.config.Neighbors.Collection(), w.config.Neighbors.Similarity) {
		log.Logger().Warn("neighborhoods were built with different settings",
			zap.String("collection", state.Collection),
			zap.String("similarity", state.Similarity),
			zap.Time("build_time", state.BuildTime))
	}
}

// Similar returns the n most similar entities. Precomputed neighbors are used if cached.
func (w *Worker) Similar(ctx context.Context, entity string, n int, cached bool) ([]cache.Score, error) {
	if cached {
		w.checkLocalCache()
		neighbors, err := w.cacheClient.GetNeighbors(ctx, w.config.Neighbors.Collection(), entity)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return truncate(neighbors, n), nil
	}
	m, err := w.getMatrix()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return logics.TopMatches(m, entity, n, w.similarity)
}

// Recommend predicts scores of counterparts unrated by an entity. At most n results are
// returned unless n is 0.
func (w *Worker) Recommend(ctx context.Context, entity string, n int, cached bool) ([]cache.Score, error) {
	m, err := w.getMatrix()
	if err != nil {
		return nil, errors.Trace(err)
	}
	start := time.Now()
	var scores []cache.Score
	if cached {
		w.checkLocalCache()
		var store logics.NeighborStore = logics.NewCacheStore(w.cacheClient, w.config.Neighbors.Collection())
		if w.neighbors != nil {
			store = w.neighbors
		}
		scores, err = logics.RecommendCached(ctx, m, store, entity)
		RecommendSecondsVec.WithLabelValues(StepCached).Observe(time.Since(start).Seconds())
	} else {
		scores, err = logics.Recommend(m, entity, w.similarity)
		RecommendSecondsVec.WithLabelValues(StepDirect).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, errors.Trace(err)
	}
	return truncate(scores, n), nil
}

func truncate(scores []cache.Score, n int) []cache.Score {
	if n > 0 {
		return lo.Slice(scores, 0, n)
	}
	return scores
}
