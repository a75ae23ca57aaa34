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

	"github.com/poiesic/winesearch/bench"
	"github.com/poiesic/winesearch/dataset"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// searchFlags are shared by the bench subcommands.
func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "search",
			Usage: "Search type to benchmark (fts, vector)",
			Value: "fts",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"l"},
			Usage:   "Number of search terms to randomly generate",
			Value:   10,
		},
		&cli.Int64Flag{
			Name:  "seed",
			Usage: "Seed for random number generator",
			Value: bench.DefaultSeed,
		},
		queriesDirFlag(),
	}
}

func queriesDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "queries-dir",
		Usage: "Directory holding keyword_terms.txt and vector_terms.txt",
		Value: bench.DefaultQueriesDir,
	}
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "url",
		Usage: "Base URL of a running API server",
		Value: "http://localhost:8000",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "winesearch",
		Usage: "Full-text and vector search over 130k wine reviews",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"L"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Environment files to load before reading settings",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    "backend",
				Usage:   "Search backend (elastic, local, qdrant)",
				EnvVars: []string{"WINESEARCH_BACKEND"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search REST API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Listen host",
						EnvVars: []string{"API_HOST"},
					},
					&cli.IntFlag{
						Name:    "port",
						Usage:   "Listen port",
						EnvVars: []string{"API_PORT"},
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Maximum concurrent backend searches (0 = number of CPUs)",
					},
				},
			},
			{
				Name:   "index",
				Usage:  "Validate, embed and bulk-load the wine reviews dataset",
				Action: indexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of records to index (0 = all)",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "chunksize",
						Usage: "Number of records per embedding and load batch",
						Value: ingestion.DefaultChunkSize,
					},
					&cli.StringFlag{
						Name:  "filename",
						Usage: "Dataset file name (.jsonl or .jsonl.gz)",
						Value: dataset.DefaultFilename,
					},
					&cli.StringFlag{
						Name:  "data-dir",
						Usage: "Directory containing the dataset file",
						Value: "data",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of batches embedded concurrently",
						Value: ingestion.DefaultWorkers,
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Discard existing local backend data before loading",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum embedding attempts per batch",
						Value: ingestion.DefaultMaxRetries,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: ingestion.DefaultRetryDelay,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Re-embed every stored wine with the configured model (local backend)",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records to process in each batch",
						Value: ingestion.DefaultChunkSize,
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
				},
			},
			{
				Name:   "query",
				Usage:  "Run every benchmark query against the API and print the top result",
				Action: queryCommand,
				Flags: []cli.Flag{
					urlFlag(),
					queriesDirFlag(),
				},
			},
			{
				Name:  "bench",
				Usage: "Benchmark search performance",
				Subcommands: []*cli.Command{
					{
						Name:   "concurrent",
						Usage:  "Send concurrent requests to a running API server",
						Action: benchConcurrentCommand,
						Flags: append([]cli.Flag{
							urlFlag(),
							&cli.IntFlag{
								Name:  "concurrency",
								Usage: "Maximum requests in flight (0 = unlimited)",
							},
							&cli.Float64Flag{
								Name:  "rate",
								Usage: "Maximum requests per second (0 = unlimited)",
							},
						}, searchFlags()...),
					},
					{
						Name:   "serial",
						Usage:  "Run queries one at a time directly against the backend",
						Action: benchSerialCommand,
						Flags:  searchFlags(),
					},
				},
			},
		},
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", s)
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// jsonLogger returns a JSON logger at the level selected by --log-level.
func jsonLogger(c *cli.Context) *slog.Logger {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func elapsed(start time.Time) float64 {
	return time.Since(start).Seconds()
}
