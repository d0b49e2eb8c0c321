// Copyright 2026 gorse Project Authors
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
	"sync"

	"github.com/juju/errors"
)

// Memory keeps neighbor lists in process memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string][]Score
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]Score)}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Ping() error {
	return nil
}

func (m *Memory) Init() error {
	return nil
}

func (m *Memory) Purge() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]map[string][]Score)
	return nil
}

func (m *Memory) SetNeighbors(_ context.Context, collection, entity string, neighbors []Score) error {
	stored := make([]Score, len(neighbors))
	copy(stored, neighbors)
	SortScores(stored)
	m.mu.Lock()
	defer m.mu.Unlock()
	lists, exist := m.collections[collection]
	if !exist {
		lists = make(map[string][]Score)
		m.collections[collection] = lists
	}
	lists[entity] = stored
	return nil
}

func (m *Memory) GetNeighbors(_ context.Context, collection, entity string) ([]Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, exist := m.collections[collection][entity]
	if !exist {
		return nil, errors.Annotate(ErrObjectNotExist, Key(collection, entity))
	}
	neighbors := make([]Score, len(stored))
	copy(neighbors, stored)
	return neighbors, nil
}

func (m *Memory) ClearNeighbors(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	return nil
}

func (m *Memory) CountNeighbors(_ context.Context, collection string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection]), nil
}
