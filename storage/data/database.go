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

package data

import (
	"context"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/gorse-io/knn/base/log"
	"github.com/gorse-io/knn/dataset"
	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

var ErrUnsupported = errors.NotSupportedf("operation")

// Rating is a rating given by a user to an item.
type Rating struct {
	UserId string  `gorm:"column:user_id;type:varchar(256);primaryKey"`
	ItemId string  `gorm:"column:item_id;type:varchar(256);primaryKey"`
	Value  float64 `gorm:"column:value;not null"`
}

// Database is a source of ratings.
type Database interface {
	Init() error
	Ping() error
	Close() error
	Purge() error
	BatchInsertRatings(ctx context.Context, ratings []Rating) error
	GetRatings(ctx context.Context) ([]Rating, error)
}

// LoadRatings loads all ratings into a user-centric matrix.
func LoadRatings(ctx context.Context, database Database) (dataset.Matrix, error) {
	start := time.Now()
	ratings, err := database.GetRatings(ctx)
	if err != nil {
		return nil, errors.Trace(err)
	}
	builder := dataset.NewBuilder()
	for _, rating := range ratings {
		builder.Add(rating.UserId, rating.ItemId, rating.Value)
	}
	m := builder.Build()
	LoadRatingsSeconds.Observe(time.Since(start).Seconds())
	LoadRatingsTotal.Set(float64(len(ratings)))
	log.Logger().Info("load ratings",
		zap.Int("n_ratings", len(ratings)),
		zap.Int("n_users", len(m)),
		zap.Duration("used_time", time.Since(start)))
	return m, nil
}

// Open a connection to a ratings source.
func Open(path, tablePrefix string, opts ...storage.Option) (Database, error) {
	var err error
	opt := storage.NewOptions(opts...)
	if strings.HasPrefix(path, storage.CSVPrefix) {
		return &CSV{path: path[len(storage.CSVPrefix):], separator: opt.Separator, header: opt.Header}, nil
	} else if strings.HasPrefix(path, storage.MySQLPrefix) {
		name := path[len(storage.MySQLPrefix):]
		// append parameters
		if name, err = storage.AppendMySQLParams(name, map[string]string{
			"sql_mode":  "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
			"parseTime": "true",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("mysql", name,
			otelsql.WithAttributes(attribute.String("db.system", "mysql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.PostgresPrefix) || strings.HasPrefix(path, storage.PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("postgres", path,
			otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), storage.NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, storage.SQLitePrefix) {
		// append parameters
		if path, err = storage.AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(storage.SQLitePrefix):]
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = storage.TablePrefix(tablePrefix)
		if database.client, err = otelsql.Open("sqlite", name,
			otelsql.WithAttributes(attribute.String("db.system", "sqlite")),
			otelsql.WithSpanOptions(otelsql.SpanOptions{DisableErrSkip: true}),
		); err != nil {
			return nil, errors.Trace(err)
		}
		storage.ApplySQLPool(database.client, opt)
		gormConfig := storage.NewGORMConfig(tablePrefix)
		gormConfig.Logger = &zapgorm2.Logger{
			ZapLogger:                 log.Logger(),
			LogLevel:                  logger.Warn,
			SlowThreshold:             10 * time.Second,
			SkipCallerLookup:          false,
			IgnoreRecordNotFoundError: false,
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, gormConfig)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", path)
}
