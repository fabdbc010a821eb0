// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/docingest/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docingest",
		Usage: "Extract, chunk, embed and search uploaded documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"DOCINGEST_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"DOCINGEST_CONFIG"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files (default .env)",
			},
			&cli.StringFlag{
				Name:  "storage-driver",
				Usage: "Document database: badger or mongo",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
			},
			&cli.StringFlag{
				Name:  "mongo-uri",
				Usage: "MongoDB connection string",
			},
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "S3 endpoint (host[:port])",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "S3 bucket holding uploads",
			},
			&cli.StringFlag{
				Name:  "ai-provider",
				Usage: "Model provider: openai or gemini",
			},
			&cli.StringFlag{
				Name:  "ai-host",
				Usage: "Base URL for all OpenAI-compatible services",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "Upload local files and create pending documents",
				ArgsUsage: "FILE...",
				Action:    registerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "File type to record instead of each file's extension",
					},
					&cli.BoolFlag{
						Name:  "process",
						Usage: "Process each document right after registering it",
					},
				},
			},
			{
				Name:      "process",
				Usage:     "Extract, chunk and embed uploaded objects",
				ArgsUsage: "KEY...",
				Action:    processCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "event",
						Usage: "Read object keys from an S3 event notification JSON file (- for stdin)",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Override the file type of every key",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Documents processed at once (0 uses the config value)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find the chunks closest to a query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results (0 uses the config value, -1 returns all)",
					},
					&cli.StringFlag{
						Name:  "document",
						Usage: "Restrict the search to one document id",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed stored chunks with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "only-missing",
						Usage: "Only embed chunks that have no embedding yet",
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads .env files and the config file, then applies the
// global flags that were set explicitly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	set := func(dst *string, flag string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	set(&cfg.Storage.Driver, "storage-driver")
	set(&cfg.Storage.Path, "db")
	set(&cfg.Storage.URI, "mongo-uri")
	set(&cfg.Objects.Endpoint, "endpoint")
	set(&cfg.Objects.Bucket, "bucket")
	set(&cfg.AI.Provider, "ai-provider")
	set(&cfg.AI.Host, "ai-host")
	set(&cfg.AI.EmbeddingModel, "embedding-model")
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
