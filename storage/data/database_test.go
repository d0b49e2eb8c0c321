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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type baseTestSuite struct {
	suite.Suite
	Database
}

func (suite *baseTestSuite) TearDownSuite() {
	err := suite.Database.Close()
	suite.NoError(err)
}

func (suite *baseTestSuite) SetupTest() {
	err := suite.Database.Ping()
	suite.NoError(err)
	err = suite.Database.Purge()
	suite.NoError(err)
}

func (suite *baseTestSuite) TestRatings() {
	ctx := context.Background()
	err := suite.Database.BatchInsertRatings(ctx, []Rating{
		{UserId: "2", ItemId: "b", Value: 3},
		{UserId: "1", ItemId: "a", Value: 4.5},
		{UserId: "1", ItemId: "b", Value: 0},
	})
	suite.NoError(err)
	ratings, err := suite.Database.GetRatings(ctx)
	suite.NoError(err)
	suite.Equal([]Rating{
		{UserId: "1", ItemId: "a", Value: 4.5},
		{UserId: "1", ItemId: "b", Value: 0},
		{UserId: "2", ItemId: "b", Value: 3},
	}, ratings)

	// overwrite existing rating
	err = suite.Database.BatchInsertRatings(ctx, []Rating{{UserId: "2", ItemId: "b", Value: 1}})
	suite.NoError(err)
	m, err := LoadRatings(ctx, suite.Database)
	suite.NoError(err)
	suite.Equal(2, len(m))
	suite.Equal(map[string]float64{"b": 1}, m["2"])
	// a stored zero is still a rating
	value, ok := m.Rating("1", "b")
	suite.True(ok)
	suite.Zero(value)

	// empty insert
	err = suite.Database.BatchInsertRatings(ctx, nil)
	suite.NoError(err)
}

func (suite *baseTestSuite) TestPurge() {
	ctx := context.Background()
	err := suite.Database.BatchInsertRatings(ctx, []Rating{{UserId: "1", ItemId: "a", Value: 1}})
	suite.NoError(err)
	err = suite.Database.Purge()
	suite.NoError(err)
	ratings, err := suite.Database.GetRatings(ctx)
	suite.NoError(err)
	suite.Empty(ratings)
}

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	err := os.WriteFile(path, []byte(content), 0644)
	assert.NoError(t, err)
	return path
}

func TestCSV(t *testing.T) {
	path := writeFile(t, "user,item,rating\n"+
		"Lisa Rose,Lady in the Water,2.5\n"+
		"Lisa Rose,\"Snakes on a Plane\",3.5\n"+
		"\n"+
		"Toby,Snakes on a Plane,4.5\n")
	db, err := Open(storage.CSVPrefix+path, "", storage.WithHeader(true))
	assert.NoError(t, err)
	assert.NoError(t, db.Init())
	assert.NoError(t, db.Ping())
	m, err := LoadRatings(context.Background(), db)
	assert.NoError(t, err)
	assert.Equal(t, map[string]float64{"Lady in the Water": 2.5, "Snakes on a Plane": 3.5}, m["Lisa Rose"])
	assert.Equal(t, map[string]float64{"Snakes on a Plane": 4.5}, m["Toby"])
	assert.NoError(t, db.Close())
}

func TestCSVSeparator(t *testing.T) {
	path := writeFile(t, "1\ta\t5\n2\tb\t1\n")
	db, err := Open(storage.CSVPrefix+path, "", storage.WithSeparator("\t"))
	assert.NoError(t, err)
	ratings, err := db.GetRatings(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []Rating{
		{UserId: "1", ItemId: "a", Value: 5},
		{UserId: "2", ItemId: "b", Value: 1},
	}, ratings)
}

func TestCSVMalformed(t *testing.T) {
	ctx := context.Background()
	// missing field
	db, err := Open(storage.CSVPrefix+writeFile(t, "1,a,5\n2,b\n"), "")
	assert.NoError(t, err)
	_, err = db.GetRatings(ctx)
	assert.ErrorContains(t, err, "line 2")
	// invalid rating
	db, err = Open(storage.CSVPrefix+writeFile(t, "1,a,five\n"), "")
	assert.NoError(t, err)
	_, err = db.GetRatings(ctx)
	assert.ErrorContains(t, err, "line 1")
	// invalid id
	db, err = Open(storage.CSVPrefix+writeFile(t, "1,a/b,5\n"), "")
	assert.NoError(t, err)
	_, err = db.GetRatings(ctx)
	assert.Error(t, err)
	// missing file
	db, err = Open(storage.CSVPrefix+filepath.Join(t.TempDir(), "none.csv"), "")
	assert.NoError(t, err)
	assert.Error(t, db.Ping())
	_, err = db.GetRatings(ctx)
	assert.Error(t, err)
}

func TestCSVReadOnly(t *testing.T) {
	db, err := Open(storage.CSVPrefix+writeFile(t, "1,a,5\n"), "")
	assert.NoError(t, err)
	err = db.BatchInsertRatings(context.Background(), []Rating{{UserId: "1", ItemId: "b", Value: 1}})
	assert.True(t, errors.Is(err, errors.NotSupported))
	assert.True(t, errors.Is(db.Purge(), errors.NotSupported))
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("unknown://", "")
	assert.Error(t, err)
}
