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

package worker

import (
	"context"
	"time"

	"github.com/gorse-io/knn/logics"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
)

// NeighborCache keeps neighbor lists read from a store for a while.
type NeighborCache struct {
	store logics.NeighborStore
	cache *ttlcache.Cache[string, []cache.Score]
}

func NewNeighborCache(store logics.NeighborStore, ttl time.Duration) *NeighborCache {
	return &NeighborCache{
		store: store,
		cache: ttlcache.New(ttlcache.WithTTL[string, []cache.Score](ttl)),
	}
}

func (c *NeighborCache) GetNeighbors(ctx context.Context, entity string) ([]cache.Score, error) {
	if item := c.cache.Get(entity); item != nil {
		NeighborCacheHitTotal.Inc()
		return item.Value(), nil
	}
	neighbors, err := c.store.GetNeighbors(ctx, entity)
	if err != nil {
		return nil, errors.Trace(err)
	}
	c.cache.Set(entity, neighbors, ttlcache.DefaultTTL)
	return neighbors, nil
}

// Reset drops all cached neighbor lists.
func (c *NeighborCache) Reset() {
	c.cache.DeleteAll()
}

func (c *NeighborCache) Len() int {
	return c.cache.Len()
}
