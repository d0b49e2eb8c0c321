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

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorse-io/knn/storage"
	"github.com/gorse-io/knn/storage/cache"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

const (
	ModeUser = "user"
	ModeItem = "item"
)

// Config is the configuration for the neighborhood engine.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Neighbors NeighborsConfig `mapstructure:"neighbors"`
	Recommend RecommendConfig `mapstructure:"recommend"`
}

// DatabaseConfig is the configuration for the ratings source and the neighborhood store.
type DatabaseConfig struct {
	DataStore    string `mapstructure:"data_store" validate:"required,data_store"`
	CacheStore   string `mapstructure:"cache_store" validate:"required,cache_store"`
	TablePrefix  string `mapstructure:"table_prefix"`
	CSVSeparator string `mapstructure:"csv_separator" validate:"required"`
	CSVHeader    bool   `mapstructure:"csv_header"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// NeighborsConfig is the configuration for neighborhood precomputation.
type NeighborsConfig struct {
	Mode             string `mapstructure:"mode" validate:"oneof=user item"`
	Similarity       string `mapstructure:"similarity" validate:"oneof=euclidean pearson tanimoto cosine"`
	N                int    `mapstructure:"n" validate:"gt=0"`
	Jobs             int    `mapstructure:"jobs" validate:"gte=0"`
	ProgressInterval int    `mapstructure:"progress_interval" validate:"gte=0"`
}

// RecommendConfig is the configuration for recommendation queries.
type RecommendConfig struct {
	N        int           `mapstructure:"n" validate:"gte=0"`
	Cached   bool          `mapstructure:"cached"`
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore:    "csv://ratings.csv",
			CacheStore:   "memory://",
			CSVSeparator: ",",
		},
		Neighbors: NeighborsConfig{
			Mode:             ModeUser,
			Similarity:       "pearson",
			N:                20,
			ProgressInterval: 1000,
		},
		Recommend: RecommendConfig{
			N: 10,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.cache_store", defaultConfig.Database.CacheStore)
	v.SetDefault("database.table_prefix", defaultConfig.Database.TablePrefix)
	v.SetDefault("database.csv_separator", defaultConfig.Database.CSVSeparator)
	v.SetDefault("database.csv_header", defaultConfig.Database.CSVHeader)
	v.SetDefault("database.max_open_conns", defaultConfig.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultConfig.Database.MaxIdleConns)
	// [neighbors]
	v.SetDefault("neighbors.mode", defaultConfig.Neighbors.Mode)
	v.SetDefault("neighbors.similarity", defaultConfig.Neighbors.Similarity)
	v.SetDefault("neighbors.n", defaultConfig.Neighbors.N)
	v.SetDefault("neighbors.jobs", defaultConfig.Neighbors.Jobs)
	v.SetDefault("neighbors.progress_interval", defaultConfig.Neighbors.ProgressInterval)
	// [recommend]
	v.SetDefault("recommend.n", defaultConfig.Recommend.N)
	v.SetDefault("recommend.cached", defaultConfig.Recommend.Cached)
	v.SetDefault("recommend.cache_ttl", defaultConfig.Recommend.CacheTTL)
}

type configBinding struct {
	key string
	env string
}

var bindings = []configBinding{
	{"database.data_store", "GORSE_KNN_DATA_STORE"},
	{"database.cache_store", "GORSE_KNN_CACHE_STORE"},
	{"database.table_prefix", "GORSE_KNN_TABLE_PREFIX"},
	{"neighbors.mode", "GORSE_KNN_MODE"},
	{"neighbors.similarity", "GORSE_KNN_SIMILARITY"},
	{"neighbors.n", "GORSE_KNN_NEIGHBORS"},
	{"neighbors.jobs", "GORSE_KNN_JOBS"},
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefault(v)
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return v, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var conf Config
	if err := v.Unmarshal(&conf, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	}); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// LoadConfig loads configuration from a TOML file. Environment variables override the file.
// An empty path loads defaults and environment variables only.
func LoadConfig(path string) (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err = v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %v", path)
		}
	}
	return unmarshal(v)
}

// Validate checks the configuration.
func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("data_store", func(fl validator.FieldLevel) bool {
		return hasPrefix(fl.Field().String(), storage.CSVPrefix, storage.SQLitePrefix,
			storage.MySQLPrefix, storage.PostgresPrefix, storage.PostgreSQLPrefix)
	}); err != nil {
		return errors.Trace(err)
	}
	if err := validate.RegisterValidation("cache_store", func(fl validator.FieldLevel) bool {
		return hasPrefix(fl.Field().String(), storage.MemoryPrefix, storage.RedisPrefix,
			storage.RedissPrefix, storage.BadgerPrefix)
	}); err != nil {
		return errors.Trace(err)
	}
	return validate.Struct(config)
}

func hasPrefix(s string, prefixes ...string) bool {
	return lo.SomeBy(prefixes, func(prefix string) bool {
		return strings.HasPrefix(s, prefix)
	})
}

// Collection returns the neighborhood collection of the configured mode.
func (config *NeighborsConfig) Collection() string {
	if config.Mode == ModeItem {
		return cache.ItemNeighbors
	}
	return cache.UserNeighbors
}
