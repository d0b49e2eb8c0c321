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

package progress

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ProgressTestSuite struct {
	suite.Suite
	tracer *Tracer
}

func (suite *ProgressTestSuite) SetupTest() {
	suite.tracer = NewTracer("test")
}

func (suite *ProgressTestSuite) TestLeafProgress() {
	span := suite.tracer.Start("root", 100, 0, nil)
	progresList := suite.tracer.List()
	suite.Equal(1, len(progresList))
	suite.Equal("test", progresList[0].Tracer)
	suite.Equal("root", progresList[0].Name)
	suite.Equal(StatusRunning, progresList[0].Status)
	suite.Empty(progresList[0].Error)
	suite.Equal(100, progresList[0].Total)
	suite.Empty(progresList[0].Count)
	suite.LessOrEqual(progresList[0].StartTime, time.Now())

	span.Add(10)
	progresList = suite.tracer.List()
	suite.Equal(StatusRunning, progresList[0].Status)
	suite.Equal(10, progresList[0].Count)

	span.End()
	progresList = suite.tracer.List()
	suite.Equal(StatusComplete, progresList[0].Status)
	suite.Empty(progresList[0].Error)
	suite.LessOrEqual(progresList[0].StartTime, progresList[0].FinishTime)

	span.Fail(errors.New("some error"))
	progresList = suite.tracer.List()
	suite.Equal(StatusFailed, progresList[0].Status)
	suite.Equal("some error", progresList[0].Error)
}

func (suite *ProgressTestSuite) TestCallback() {
	var reports [][2]int
	span := suite.tracer.Start("root", 10, 3, func(done, total int) {
		reports = append(reports, [2]int{done, total})
	})
	for i := 0; i < 10; i++ {
		span.Add(1)
	}
	span.End()
	suite.Equal([][2]int{{3, 10}, {6, 10}, {9, 10}, {10, 10}}, reports)
	// nothing new to report
	span.End()
	suite.Len(reports, 4)
}

func (suite *ProgressTestSuite) TestCallbackBatch() {
	var reports []int
	span := suite.tracer.Start("root", 10, 3, func(done, total int) {
		reports = append(reports, done)
	})
	span.Add(2)
	span.Add(5)
	span.Add(3)
	span.End()
	suite.Equal([]int{7, 10}, reports)
}

func (suite *ProgressTestSuite) TestConcurrentCallback() {
	var (
		mu      sync.Mutex
		calls   int
		maxDone int
	)
	span := suite.tracer.Start("root", 1000, 10, func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		maxDone = max(maxDone, done)
	})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Go(func() {
			for j := 0; j < 100; j++ {
				span.Add(1)
			}
		})
	}
	wg.Wait()
	span.End()
	suite.Equal(1000, span.Count())
	suite.Equal(1000, maxDone)
	suite.LessOrEqual(calls, 100)
}

func (suite *ProgressTestSuite) TestList() {
	suite.tracer.Start("b", 1, 0, nil)
	suite.tracer.Start("a", 2, 0, nil)
	progresList := suite.tracer.List()
	suite.Equal("a", progresList[0].Name)
	suite.Equal("b", progresList[1].Name)
}

func TestProgressTestSuite(t *testing.T) {
	suite.Run(t, new(ProgressTestSuite))
}
