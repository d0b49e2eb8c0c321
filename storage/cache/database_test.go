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
	"strconv"
	"testing"

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

func (suite *baseTestSuite) TearDownTest() {
	err := suite.Database.Purge()
	suite.NoError(err)
}

func (suite *baseTestSuite) TestInit() {
	err := suite.Database.Init()
	suite.NoError(err)
}

func (suite *baseTestSuite) TestNeighbors() {
	ctx := context.Background()
	// set neighbors out of order
	err := suite.Database.SetNeighbors(ctx, UserNeighbors, "Toby", []Score{
		{Id: "Mick LaSalle", Score: 0.924},
		{Id: "Lisa Rose", Score: 0.991},
		{Id: "Claudia Puig", Score: 0.924},
		{Id: "Gene Seymour", Score: 0.381},
		{Id: "Michael Phillips", Score: -1},
	})
	suite.NoError(err)
	neighbors, err := suite.Database.GetNeighbors(ctx, UserNeighbors, "Toby")
	suite.NoError(err)
	suite.Equal([]Score{
		{Id: "Lisa Rose", Score: 0.991},
		{Id: "Mick LaSalle", Score: 0.924},
		{Id: "Claudia Puig", Score: 0.924},
		{Id: "Gene Seymour", Score: 0.381},
		{Id: "Michael Phillips", Score: -1},
	}, neighbors)
	// override neighbors
	err = suite.Database.SetNeighbors(ctx, UserNeighbors, "Toby", []Score{{Id: "Lisa Rose", Score: 1.0 / 18}})
	suite.NoError(err)
	neighbors, err = suite.Database.GetNeighbors(ctx, UserNeighbors, "Toby")
	suite.NoError(err)
	suite.Equal([]Score{{Id: "Lisa Rose", Score: 1.0 / 18}}, neighbors)
	// empty neighbors
	err = suite.Database.SetNeighbors(ctx, UserNeighbors, "Lonely", nil)
	suite.NoError(err)
	neighbors, err = suite.Database.GetNeighbors(ctx, UserNeighbors, "Lonely")
	suite.NoError(err)
	suite.Empty(neighbors)
	// missing neighbors
	_, err = suite.Database.GetNeighbors(ctx, UserNeighbors, "Nobody")
	suite.True(errors.Is(err, errors.NotFound), err)
	_, err = suite.Database.GetNeighbors(ctx, ItemNeighbors, "Toby")
	suite.True(errors.Is(err, errors.NotFound), err)
}

func (suite *baseTestSuite) TestClearNeighbors() {
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		err := suite.Database.SetNeighbors(ctx, UserNeighbors, strconv.Itoa(i), []Score{{Id: "x", Score: float64(i)}})
		suite.NoError(err)
		err = suite.Database.SetNeighbors(ctx, ItemNeighbors, strconv.Itoa(i), []Score{{Id: "y", Score: float64(i)}})
		suite.NoError(err)
	}
	count, err := suite.Database.CountNeighbors(ctx, UserNeighbors)
	suite.NoError(err)
	suite.Equal(10, count)
	// clear user neighbors only
	err = suite.Database.ClearNeighbors(ctx, UserNeighbors)
	suite.NoError(err)
	count, err = suite.Database.CountNeighbors(ctx, UserNeighbors)
	suite.NoError(err)
	suite.Zero(count)
	_, err = suite.Database.GetNeighbors(ctx, UserNeighbors, "1")
	suite.True(errors.Is(err, errors.NotFound), err)
	count, err = suite.Database.CountNeighbors(ctx, ItemNeighbors)
	suite.NoError(err)
	suite.Equal(10, count)
	neighbors, err := suite.Database.GetNeighbors(ctx, ItemNeighbors, "1")
	suite.NoError(err)
	suite.Equal([]Score{{Id: "y", Score: 1}}, neighbors)
	// clear an empty collection
	err = suite.Database.ClearNeighbors(ctx, UserNeighbors)
	suite.NoError(err)
}

func TestSortScores(t *testing.T) {
	scores := []Score{{"a", 1}, {"c", 2}, {"b", 1}, {"d", -1}}
	SortScores(scores)
	assert.Equal(t, []Score{{"c", 2}, {"b", 1}, {"a", 1}, {"d", -1}}, scores)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "user_neighbors/Toby", Key(UserNeighbors, "Toby"))
}

func TestOpenUnknown(t *testing.T) {
	_, err := Open("mongodb://localhost:27017", "")
	assert.Error(t, err)
}
