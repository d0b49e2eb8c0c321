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

package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	// UserNeighbors is the collection of user-based neighborhoods.
	UserNeighbors = "user_neighbors"
	// ItemNeighbors is the collection of item-based neighborhoods.
	ItemNeighbors = "item_neighbors"
)

// ErrObjectNotExist is returned for a missing neighbor list.
var ErrObjectNotExist = errors.NotFoundf("object")

// Score is an id paired with a score. Neighbor lists and recommendation lists are both
// slices of Score ordered by descending score.
type Score struct {
	Id    string
	Score float64
}

// SortScores sorts scores in descending order. Equal scores are ordered by id in
// descending order.
func SortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Id > scores[j].Id
	})
}

// Key joins parts of a key with slashes.
func Key(keys ...string) string {
	return strings.Join(keys, "/")
}

// Database stores precomputed neighbor lists grouped by collection. A collection is rebuilt
// wholesale: ClearNeighbors followed by SetNeighbors for every entity.
type Database interface {
	Close() error
	Ping() error
	Init() error
	// Purge removes all data.
	Purge() error
	// SetNeighbors replaces the neighbor list of an entity.
	SetNeighbors(ctx context.Context, collection, entity string, neighbors []Score) error
	// GetNeighbors returns the neighbor list of an entity in descending order. It fails
	// with a NotFound error if no list was stored for the entity.
	GetNeighbors(ctx context.Context, collection, entity string) ([]Score, error)
	// ClearNeighbors removes every neighbor list in a collection.
	ClearNeighbors(ctx context.Context, collection string) error
	// CountNeighbors returns the number of entities with a neighbor list in a collection.
	CountNeighbors(ctx context.Context, collection string) (int, error)
}

// Open a connection to a database.
func Open(path, tablePrefix string) (Database, error) {
	if strings.HasPrefix(path, storage.MemoryPrefix) {
		return &instrumented{Database: NewMemory()}, nil
	} else if strings.HasPrefix(path, storage.RedisPrefix) || strings.HasPrefix(path, storage.RedissPrefix) {
		opt, err := redis.ParseURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		database := new(Redis)
		database.client = redis.NewClient(opt)
		if err = redisotel.InstrumentTracing(database.client); err != nil {
			return nil, errors.Trace(err)
		}
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		return &instrumented{Database: database}, nil
	} else if strings.HasPrefix(path, storage.BadgerPrefix) {
		dir := path[len(storage.BadgerPrefix):]
		opt := badger.DefaultOptions(dir).WithLogger(newBadgerLogger())
		if dir == "" {
			opt = opt.WithInMemory(true)
		}
		database := new(Badger)
		var err error
		if database.db, err = badger.Open(opt); err != nil {
			return nil, errors.Trace(err)
		}
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		return &instrumented{Database: database}, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}

// instrumented records metrics of neighbor list operations.
type instrumented struct {
	Database
}

func (d *instrumented) SetNeighbors(ctx context.Context, collection, entity string, neighbors []Score) error {
	start := time.Now()
	err := d.Database.SetNeighbors(ctx, collection, entity, neighbors)
	SetNeighborsSeconds.Observe(time.Since(start).Seconds())
	SetNeighborsTimes.Inc()
	return err
}

func (d *instrumented) GetNeighbors(ctx context.Context, collection, entity string) ([]Score, error) {
	start := time.Now()
	neighbors, err := d.Database.GetNeighbors(ctx, collection, entity)
	GetNeighborsSeconds.Observe(time.Since(start).Seconds())
	GetNeighborsTimes.Inc()
	return neighbors, err
}

func (d *instrumented) ClearNeighbors(ctx context.Context, collection string) error {
	start := time.Now()
	err := d.Database.ClearNeighbors(ctx, collection)
	ClearNeighborsSeconds.Observe(time.Since(start).Seconds())
	return err
}
