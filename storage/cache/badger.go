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

package cache

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorse-io/knn/base/json"
	"github.com/gorse-io/knn/base/log"
	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const prefixNeighbors = "neighbors/" // prefix for neighbors

// Badger stores each neighbor list as a JSON value under neighbors/<collection>/<entity>.
type Badger struct {
	storage.TablePrefix
	db *badger.DB
}

func (db *Badger) prefix(collection string) []byte {
	return []byte(db.Key(prefixNeighbors + collection + "/"))
}

func (db *Badger) key(collection, entity string) []byte {
	return append(db.prefix(collection), entity...)
}

// Close the connection to the database.
func (db *Badger) Close() error {
	return db.db.Close()
}

func (db *Badger) Ping() error {
	if db.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

func (db *Badger) Init() error {
	return nil
}

func (db *Badger) Purge() error {
	return errors.Trace(db.db.DropAll())
}

func (db *Badger) SetNeighbors(_ context.Context, collection, entity string, neighbors []Score) error {
	stored := make([]Score, len(neighbors))
	copy(stored, neighbors)
	SortScores(stored)
	buf, err := json.Marshal(stored)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(db.key(collection, entity), buf)
	}))
}

func (db *Badger) GetNeighbors(_ context.Context, collection, entity string) ([]Score, error) {
	var neighbors []Score
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(db.key(collection, entity))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &neighbors)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Annotate(ErrObjectNotExist, Key(collection, entity))
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	if neighbors == nil {
		neighbors = []Score{}
	}
	return neighbors, nil
}

func (db *Badger) ClearNeighbors(_ context.Context, collection string) error {
	return errors.Trace(db.db.DropPrefix(db.prefix(collection)))
}

func (db *Badger) CountNeighbors(_ context.Context, collection string) (int, error) {
	count := 0
	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := db.prefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, errors.Trace(err)
}

// badgerLogger forwards badger logs to zap.
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

func newBadgerLogger() badger.Logger {
	return &badgerLogger{sugar: log.Logger().Named("badger").Sugar()}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}
