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

	"github.com/gorse-io/knn/storage"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

// Redis stores each neighbor list in a sorted set. A set per collection indexes the
// entities with a stored list, so that an empty list can be told apart from a missing one.
type Redis struct {
	storage.TablePrefix
	client *redis.Client
}

func (r *Redis) neighborsKey(collection, entity string) string {
	return r.Key(Key("neighbors", collection, entity))
}

func (r *Redis) indexKey(collection string) string {
	return r.Key(Key("entities", collection))
}

// Close redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Ping() error {
	return r.client.Ping(context.Background()).Err()
}

// Init nothing.
func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Purge() error {
	return r.client.FlushDB(context.Background()).Err()
}

func (r *Redis) SetNeighbors(ctx context.Context, collection, entity string, neighbors []Score) error {
	key := r.neighborsKey(collection, entity)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(neighbors) > 0 {
			p.ZAdd(ctx, key, lo.Map(neighbors, func(s Score, _ int) redis.Z {
				return redis.Z{Member: s.Id, Score: s.Score}
			})...)
		}
		p.SAdd(ctx, r.indexKey(collection), entity)
		return nil
	})
	return errors.Trace(err)
}

func (r *Redis) GetNeighbors(ctx context.Context, collection, entity string) ([]Score, error) {
	exist, err := r.client.SIsMember(ctx, r.indexKey(collection), entity).Result()
	if err != nil {
		return nil, errors.Trace(err)
	} else if !exist {
		return nil, errors.Annotate(ErrObjectNotExist, Key(collection, entity))
	}
	// sorted sets order equal scores by member, which matches SortScores
	members, err := r.client.ZRevRangeWithScores(ctx, r.neighborsKey(collection, entity), 0, -1).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(members, func(z redis.Z, _ int) Score {
		return Score{Id: z.Member.(string), Score: z.Score}
	}), nil
}

func (r *Redis) ClearNeighbors(ctx context.Context, collection string) error {
	entities, err := r.client.SMembers(ctx, r.indexKey(collection)).Result()
	if err != nil {
		return errors.Trace(err)
	}
	p := r.client.Pipeline()
	for _, chunk := range lo.Chunk(entities, 1000) {
		p.Del(ctx, lo.Map(chunk, func(entity string, _ int) string {
			return r.neighborsKey(collection, entity)
		})...)
	}
	p.Del(ctx, r.indexKey(collection))
	_, err = p.Exec(ctx)
	return errors.Trace(err)
}

func (r *Redis) CountNeighbors(ctx context.Context, collection string) (int, error) {
	count, err := r.client.SCard(ctx, r.indexKey(collection)).Result()
	return int(count), errors.Trace(err)
}
