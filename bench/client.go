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


package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/search"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Client sends search queries to a running API server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithHTTPClient sets the HTTP client. Default has a 5 minute timeout and a
// traced transport.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) error {
		if c == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		cl.httpClient = c
		return nil
	}
}

// WithConcurrency caps the number of requests in flight. Zero or less means
// one goroutine per query, all at once.
func WithConcurrency(n int) ClientOption {
	return func(cl *Client) error {
		cl.concurrency = n
		return nil
	}
}

// WithRate paces requests to perSecond. Zero or less disables pacing.
func WithRate(perSecond float64) ClientOption {
	return func(cl *Client) error {
		if perSecond <= 0 {
			cl.limiter = nil
			return nil
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(cl *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		cl.logger = logger
		return nil
	}
}

// NewClient creates a client for the API server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API url %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   5 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "bench")
	return c, nil
}

func endpoint(kind search.Kind) string {
	if kind == search.KindVector {
		return "/vector_search"
	}
	return "/fts_search"
}

// Query runs one search. A 404 yields an empty result, not an error.
func (c *Client) Query(ctx context.Context, kind search.Kind, query string) ([]core.SearchResult, error) {
	target := c.baseURL + endpoint(kind) + "?" + url.Values{"query": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return []core.SearchResult{}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []core.SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return results, nil
}

// RunConcurrent sends every query at once, subject to the concurrency cap and
// rate, and returns the responses in query order. The first failed request
// cancels the rest.
func (c *Client) RunConcurrent(ctx context.Context, kind search.Kind, queries []string) ([][]core.SearchResult, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	out := make([][]core.SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}

	var waitErr error
	for i, q := range queries {
		if c.limiter != nil {
			if waitErr = c.limiter.Wait(ctx); waitErr != nil {
				break
			}
		}
		g.Go(func() error {
			results, err := c.Query(ctx, kind, q)
			if err != nil {
				return fmt.Errorf("query %q: %w", q, err)
			}
			out[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if waitErr != nil {
		return nil, waitErr
	}
	return out, nil
}
