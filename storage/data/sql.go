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
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	_ "github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLDatabase stores ratings in a relational database.
type SQLDatabase struct {
	storage.TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

// Ratings is the table model of ratings.
type Ratings Rating

// Init creates the ratings table.
func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	if err := db.AutoMigrate(Ratings{}); err != nil {
		return errors.Trace(err)
	}
	return nil
}

func (d *SQLDatabase) Ping() error {
	return d.client.Ping()
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) Purge() error {
	if d.gormDB.Migrator().HasTable(d.RatingsTable()) {
		if err := d.gormDB.Exec("DELETE FROM " + d.RatingsTable()).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// BatchInsertRatings inserts ratings. An existing rating of the same user and item is overwritten.
func (d *SQLDatabase) BatchInsertRatings(ctx context.Context, ratings []Rating) error {
	if len(ratings) == 0 {
		return nil
	}
	err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&ratings).Error
	return errors.Trace(err)
}

// GetRatings streams all ratings ordered by user and item.
func (d *SQLDatabase) GetRatings(ctx context.Context) ([]Rating, error) {
	rows, err := d.gormDB.WithContext(ctx).Table(d.RatingsTable()).
		Select("user_id, item_id, value").
		Order("user_id, item_id").
		Rows()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()
	var ratings []Rating
	for rows.Next() {
		var rating Rating
		if err = d.gormDB.ScanRows(rows, &rating); err != nil {
			return nil, errors.Trace(err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, errors.Trace(rows.Err())
}
