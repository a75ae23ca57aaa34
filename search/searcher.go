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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// Kind selects a query shape.
type Kind string

const (
	KindFullText Kind = "fts"
	KindVector   Kind = "vector"
)

// ParseKind parses "fts" or "vector", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindFullText, KindVector:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// QueryEncoder embeds a search query. *ai.Encoder satisfies it.
type QueryEncoder interface {
	EncodeQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher runs full-text and vector queries against a backend.
type Searcher struct {
	repository storage.Searcher
	encoder    QueryEncoder
	pool       *ants.Pool
	poolSize   int
	probes     int
	monitor    SearchMonitor
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithPoolSize sets the number of concurrent backend calls.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(s *Searcher) error {
		s.poolSize = max(size, 1)
		return nil
	}
}

// WithProbes sets the number of index partitions searched per vector query.
// Default is storage.DefaultProbes.
func WithProbes(probes int) Option {
	return func(s *Searcher) error {
		if probes < 1 {
			return fmt.Errorf("probes must be positive, got %d", probes)
		}
		s.probes = probes
		return nil
	}
}

// WithMonitor installs a monitor that observes every query.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.Searcher, encoder QueryEncoder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	s := &Searcher{
		repository: repository,
		encoder:    encoder,
		poolSize:   runtime.NumCPU(),
		probes:     storage.DefaultProbes,
		monitor:    &noopMonitor{},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Search runs a query of the given kind. It returns an empty slice, not an
// error, when nothing matches. A limit of zero uses storage.DefaultLimit.
func (s *Searcher) Search(ctx context.Context, kind Kind, query string, limit int) ([]core.SearchResult, error) {
	switch kind {
	case KindFullText:
		return s.FullText(ctx, query, limit)
	case KindVector:
		return s.Similar(ctx, query, limit)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// FullText returns wines whose title or description match the query terms.
func (s *Searcher) FullText(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	return s.run(ctx, KindFullText, query, func(ctx context.Context, q string) ([]core.SearchResult, error) {
		return s.repository.FullTextSearch(ctx, storage.TextQuery{Terms: q, Limit: limit})
	})
}

// Similar returns the wines whose embeddings are closest to the query's.
func (s *Searcher) Similar(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	return s.run(ctx, KindVector, query, func(ctx context.Context, q string) ([]core.SearchResult, error) {
		vector, err := s.encoder.EncodeQuery(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("encoding query: %w", err)
		}
		s.monitor.AfterQueryEncoding(vector)
		return s.repository.VectorSearch(ctx, storage.VectorQuery{Vector: vector, Limit: limit, Probes: s.probes})
	})
}

type searchFunc func(ctx context.Context, query string) ([]core.SearchResult, error)

func (s *Searcher) run(ctx context.Context, kind Kind, query string, fn searchFunc) ([]core.SearchResult, error) {
	q := normalizeQuery(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	s.monitor.Start(kind, q)
	start := time.Now()
	results, err := s.submit(ctx, q, fn)
	elapsed := time.Since(start)
	s.monitor.Finish(results, elapsed, err)

	if err != nil {
		s.logger.Error("search failed", "kind", kind, "query", q, "err", err)
		return nil, err
	}
	s.logger.Debug("search complete", "kind", kind, "query", q, "hits", len(results), "elapsed", elapsed)
	if results == nil {
		results = []core.SearchResult{}
	}
	return results, nil
}

type searchOutcome struct {
	results []core.SearchResult
	err     error
}

// submit runs fn on the pool and waits for it or for ctx.
func (s *Searcher) submit(ctx context.Context, q string, fn searchFunc) ([]core.SearchResult, error) {
	done := make(chan searchOutcome, 1)
	err := s.pool.Submit(func() {
		if ctx.Err() != nil {
			done <- searchOutcome{err: ctx.Err()}
			return
		}
		results, err := fn(ctx, q)
		done <- searchOutcome{results: results, err: err}
	})
	if err != nil {
		return nil, fmt.Errorf("submitting search: %w", err)
	}

	select {
	case out := <-done:
		return out.results, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release releases the worker pool.
// The searcher should not be used after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
