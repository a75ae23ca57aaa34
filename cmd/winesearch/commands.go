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
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/winesearch"
	"github.com/poiesic/winesearch/bench"
	"github.com/poiesic/winesearch/config"
	"github.com/poiesic/winesearch/dataset"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/poiesic/winesearch/search"
	"github.com/urfave/cli/v2"
)

// loadSettings reads settings from the env files and environment and
// applies global flag overrides.
func loadSettings(c *cli.Context) (*config.Settings, error) {
	settings, err := config.Load(config.WithEnvFile(c.StringSlice("env-file")...))
	if err != nil {
		return nil, err
	}
	if c.IsSet("backend") {
		settings.Backend = c.String("backend")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func openDatabase(settings *config.Settings, logger *slog.Logger, opts ...winesearch.DatabaseOption) (*winesearch.Database, error) {
	start := time.Now()
	opts = append([]winesearch.DatabaseOption{winesearch.WithLogger(logger)}, opts...)
	db, err := winesearch.NewDatabase(settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", settings.Backend, err)
	}
	logger.Debug("opened database", "backend", db.Repository().Name(), "elapsed", time.Since(start))
	return db, nil
}

func serveCommand(c *cli.Context) error {
	logger := jsonLogger(c)
	slog.SetDefault(logger)

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	if c.IsSet("host") {
		settings.APIHost = c.String("host")
	}
	if c.IsSet("port") {
		settings.APIPort = c.Int("port")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(settings, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Repository().Ping(ctx); err != nil {
		logger.Warn("backend not reachable at startup", "backend", db.Repository().Name(), "err", err)
	}

	var searchOpts []search.Option
	if n := c.Int("pool-size"); n > 0 {
		searchOpts = append(searchOpts, search.WithPoolSize(n))
	}
	searcher, err := db.NewSearcher(searchOpts...)
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	srv, err := db.NewServer(searcher)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.ListenAndServe(ctx, settings.APIAddress())
}

func indexCommand(c *cli.Context) error {
	if c.Int("limit") < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if c.Int("chunksize") <= 0 {
		return fmt.Errorf("chunksize must be greater than 0")
	}
	if c.Int("workers") <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	f, err := dataset.Open(c.String("data-dir"), c.String("filename"))
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	raws, err := dataset.ReadAll(f, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", f.Path(), err)
	}
	fmt.Printf("Read %d records from %s in %.4f sec\n", len(raws), f.Path(), elapsed(start))

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	db, err := openDatabase(settings, logger, winesearch.WithReset(c.Bool("reset")))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Repository().Ping(ctx); err != nil {
		return fmt.Errorf("%s backend unreachable: %w", db.Repository().Name(), err)
	}

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithChunkSize(c.Int("chunksize")),
		ingestion.WithWorkers(c.Int("workers")),
		ingestion.WithMaxRetries(c.Int("max-retries")),
		ingestion.WithRetryDelay(c.Duration("retry-delay")),
		ingestion.WithProgress(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	report, err := pipeline.Run(ctx, raws)
	if err != nil {
		return fmt.Errorf("indexing failed after loading %d records: %w", report.Loaded, err)
	}

	count, err := db.Repository().Count(ctx)
	if err != nil {
		logger.Warn("could not count records", "err", err)
		return nil
	}
	fmt.Printf("%s backend now holds %d records\n", db.Repository().Name(), count)
	return nil
}

func reembedCommand(c *cli.Context) error {
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(settings, slog.Default(), winesearch.WithReset(false))
	if err != nil {
		return err
	}
	defer db.Close()

	scanner, ok := db.Repository().(ingestion.WineScanner)
	if !ok {
		return fmt.Errorf("%s backend does not support re-embedding; run index instead", db.Repository().Name())
	}

	pipeline, err := db.NewIngestionPipeline(
		ingestion.WithChunkSize(c.Int("batch-size")),
		ingestion.WithMaxRetries(c.Int("max-retries")),
		ingestion.WithRetryDelay(c.Duration("retry-delay")),
		ingestion.WithProgress(os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	if _, err := pipeline.Reembed(ctx, scanner); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	dir := c.String("queries-dir")
	ftsQueries, err := dataset.ReadQueryTerms(bench.TermsFile(dir, search.KindFullText))
	if err != nil {
		return err
	}
	vectorQueries, err := dataset.ReadQueryTerms(bench.TermsFile(dir, search.KindVector))
	if err != nil {
		return err
	}

	client, err := bench.NewClient(c.String("url"))
	if err != nil {
		return err
	}
	return bench.Inspect(c.Context, client, ftsQueries, vectorQueries, os.Stdout)
}

// benchQueries parses the shared benchmark flags and draws the queries.
func benchQueries(c *cli.Context) (search.Kind, []string, error) {
	kind, err := search.ParseKind(c.String("search"))
	if err != nil {
		return "", nil, fmt.Errorf("please specify a valid search type: 'fts' or 'vector': %w", err)
	}
	if c.Int("limit") <= 0 {
		return "", nil, fmt.Errorf("limit must be greater than 0")
	}
	queries, err := bench.LoadQueries(c.String("queries-dir"), kind, c.Int("limit"), c.Int64("seed"))
	if err != nil {
		return "", nil, err
	}
	return kind, queries, nil
}

func benchConcurrentCommand(c *cli.Context) error {
	kind, queries, err := benchQueries(c)
	if err != nil {
		return err
	}

	client, err := bench.NewClient(c.String("url"),
		bench.WithConcurrency(c.Int("concurrency")),
		bench.WithRate(c.Float64("rate")))
	if err != nil {
		return err
	}
	_, err = bench.Concurrent(c.Context, client, kind, queries, os.Stdout)
	return err
}

func benchSerialCommand(c *cli.Context) error {
	kind, queries, err := benchQueries(c)
	if err != nil {
		return err
	}

	settings, err := loadSettings(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	start := time.Now()
	db, err := openDatabase(settings, slog.Default())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Repository().Ping(ctx); err != nil {
		return fmt.Errorf("%s backend unreachable: %w", db.Repository().Name(), err)
	}
	fmt.Printf("Obtained %s client in: %.4f sec\n", db.Repository().Name(), elapsed(start))

	searcher, err := db.NewSearcher(search.WithPoolSize(1))
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}
	defer searcher.Release()

	_, err = bench.Serial(ctx, searcher, kind, queries, os.Stdout)
	return err
}
