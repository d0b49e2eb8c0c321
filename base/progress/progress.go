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
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Callback receives the number of finished jobs and the total number of jobs.
type Callback func(done, total int)

// Tracer keeps the spans of a process so that their progress can be listed.
type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a span counting total jobs. The callback, if not nil, is invoked every
// interval finished jobs and once when the span ends. Invocations never overlap.
func (t *Tracer) Start(name string, total, interval int, callback Callback) *Span {
	span := &Span{
		tracer:   t.name,
		name:     name,
		status:   StatusRunning,
		total:    total,
		interval: interval,
		callback: callback,
		start:    time.Now(),
	}
	t.spans.Store(name, span)
	return span
}

// List returns the progress of all spans ordered by name.
func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(key, value interface{}) bool {
		progress = append(progress, value.(*Span).Progress())
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Name < progress[j].Name
	})
	return progress
}

type Span struct {
	tracer   string
	name     string
	total    int
	interval int
	callback Callback
	count    atomic.Int64
	start    time.Time

	mu       sync.Mutex
	status   Status
	err      error
	finish   time.Time
	reported int
}

// Add marks n jobs as finished.
func (s *Span) Add(n int) {
	count := int(s.count.Add(int64(n)))
	if s.callback == nil || s.interval <= 0 || count/s.interval == (count-n)/s.interval {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// a concurrent Add may have reported a later count already
	if count > s.reported {
		s.reported = count
		s.callback(count, s.total)
	}
}

// End marks the span as complete.
func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusComplete
	s.finish = time.Now()
	count := int(s.count.Load())
	if s.callback != nil && count > s.reported {
		s.reported = count
		s.callback(count, s.total)
	}
}

// Fail marks the span as failed.
func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.err = err
	s.finish = time.Now()
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

func (s *Span) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{
		Tracer:     s.tracer,
		Name:       s.name,
		Status:     s.status,
		Count:      int(s.count.Load()),
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	return p
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
