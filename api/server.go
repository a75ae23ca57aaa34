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


package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/search"
)

const (
	// DefaultLimit is the result count for /fts_search and /vector_search.
	DefaultLimit = 10

	// LegacyLimit is the result count for /search.
	LegacyLimit = 5

	shutdownTimeout = 10 * time.Second
)

// Searcher runs a wine query. *search.Searcher satisfies it.
type Searcher interface {
	Search(ctx context.Context, kind search.Kind, query string, limit int) ([]core.SearchResult, error)
}

// Backend reports the name and reachability of the storage backend.
type Backend interface {
	Name() string
	Ping(ctx context.Context) error
}

// Server is the HTTP front end of the search service.
type Server struct {
	searcher    Searcher
	backend     Backend
	serviceName string
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithServiceName sets the service name reported on trace spans.
// Default is "winesearch".
func WithServiceName(name string) Option {
	return func(s *Server) error {
		if name == "" {
			return errors.New("service name cannot be empty")
		}
		s.serviceName = name
		return nil
	}
}

// NewServer creates a server answering queries with searcher.
func NewServer(searcher Searcher, backend Backend, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if backend == nil {
		return nil, ErrBackendRequired
	}

	s := &Server{
		searcher:    searcher,
		backend:     backend,
		serviceName: "winesearch",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "api")
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /fts_search", s.handleSearch(search.KindFullText, "query", DefaultLimit))
	mux.HandleFunc("GET /vector_search", s.handleSearch(search.KindVector, "query", DefaultLimit))
	mux.HandleFunc("GET /search", s.handleSearch(search.KindVector, "terms", LegacyLimit))

	return Chain(mux,
		Recover(s.logger),
		Tracing(s.serviceName),
		Logger(s.logger),
	)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server starting", "addr", addr, "backend", s.backend.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
