// Copyright 2022 gorse Project Authors
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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorse-io/knn/base/log"
	"github.com/gorse-io/knn/cmd/version"
	"github.com/gorse-io/knn/config"
	"github.com/gorse-io/knn/worker"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCommand = &cobra.Command{
	Use:   "gorse-knn",
	Short: "Neighborhood-based collaborative filtering.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.CloseLogger()
	},
}

var buildCommand = &cobra.Command{
	Use:   "build",
	Short: "Precompute neighborhoods of all entities.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()
		w := newWorker(cmd)
		defer closeWorker(w)
		if err := w.Load(ctx); err != nil {
			log.Logger().Fatal("failed to load ratings", zap.Error(err))
		}
		var bar *progressbar.ProgressBar
		quiet, _ := cmd.Flags().GetBool("quiet")
		err := w.Build(ctx, func(done, total int) {
			if quiet {
				return
			}
			if bar == nil {
				bar = progressbar.Default(int64(total), "Building neighborhoods")
			}
			_ = bar.Set(done)
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			log.Logger().Fatal("failed to build neighborhoods", zap.Error(err))
		}
	},
}

var similarCommand = &cobra.Command{
	Use:   "similar",
	Short: "Show the most similar entities of an entity.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id, _ := cmd.Flags().GetString("id")
		n, _ := cmd.Flags().GetInt("n")
		w := newWorker(cmd)
		defer closeWorker(w)
		cached := isCached(cmd)
		if !cached {
			if err := w.Load(ctx); err != nil {
				log.Logger().Fatal("failed to load ratings", zap.Error(err))
			}
		}
		scores, err := w.Similar(ctx, id, n, cached)
		if err != nil {
			log.Logger().Fatal("failed to find similar entities", zap.String("id", id), zap.Error(err))
		}
		if err = printScores(os.Stdout, "neighbor", scores); err != nil {
			log.Logger().Fatal("failed to print", zap.Error(err))
		}
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend counterparts unrated by an entity.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id, _ := cmd.Flags().GetString("id")
		w := newWorker(cmd)
		defer closeWorker(w)
		if err := w.Load(ctx); err != nil {
			log.Logger().Fatal("failed to load ratings", zap.Error(err))
		}
		n := getConfig(cmd).Recommend.N
		if cmd.Flags().Changed("n") {
			n, _ = cmd.Flags().GetInt("n")
		}
		scores, err := w.Recommend(ctx, id, n, isCached(cmd))
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.String("id", id), zap.Error(err))
		}
		if err = printScores(os.Stdout, "recommendation", scores); err != nil {
			log.Logger().Fatal("failed to print", zap.Error(err))
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(version.BuildInfo())
	},
}

var globalConfig *config.Config

func getConfig(cmd *cobra.Command) *config.Config {
	if globalConfig != nil {
		return globalConfig
	}
	configPath, _ := cmd.Flags().GetString("config")
	log.Logger().Info("load config", zap.String("config", configPath))
	var err error
	globalConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return globalConfig
}

func isCached(cmd *cobra.Command) bool {
	if cmd.Flags().Changed("cached") {
		cached, _ := cmd.Flags().GetBool("cached")
		return cached
	}
	return getConfig(cmd).Recommend.Cached
}

func newWorker(cmd *cobra.Command) *worker.Worker {
	conf := getConfig(cmd)
	cacheFile, _ := cmd.Flags().GetString("cache-file")
	w, err := worker.NewWorker(conf, cacheFile)
	if err != nil {
		log.Logger().Fatal("failed to create worker", zap.Error(err))
	}
	return w
}

func closeWorker(w *worker.Worker) {
	if err := w.Close(); err != nil {
		log.Logger().Error("failed to close worker", zap.Error(err))
	}
}

func init() {
	log.AddFlags(rootCommand.PersistentFlags())
	rootCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	rootCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCommand.PersistentFlags().String("cache-file", "", "path of the local build state file")
	buildCommand.Flags().BoolP("quiet", "q", false, "hide the progress bar")
	similarCommand.Flags().String("id", "", "entity id")
	similarCommand.Flags().IntP("n", "n", 5, "number of neighbors")
	similarCommand.Flags().Bool("cached", false, "read precomputed neighborhoods")
	recommendCommand.Flags().String("id", "", "entity id")
	recommendCommand.Flags().IntP("n", "n", 10, "number of recommendations (0 for all)")
	recommendCommand.Flags().Bool("cached", false, "use precomputed neighborhoods")
	_ = similarCommand.MarkFlagRequired("id")
	_ = recommendCommand.MarkFlagRequired("id")
	rootCommand.AddCommand(buildCommand, similarCommand, recommendCommand, versionCommand)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}
