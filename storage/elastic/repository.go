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


package elastic

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

//go:embed mapping.json
var indexMapping []byte

// Repository is a storage.WineRepository backed by an Elasticsearch index
// behind an alias.
type Repository struct {
	client      *elasticsearch.Client
	cfg         Config
	bulkWorkers int
	logger      *slog.Logger

	mu     sync.RWMutex
	closed bool
}

var _ storage.WineRepository = (*Repository)(nil)

// NewRepository creates a client for the cluster described by cfg. No request
// is made until the first operation.
func NewRepository(cfg Config, opts ...Option) (storage.WineRepository, error) {
	r, err := newRepository(cfg, nil, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newRepository(cfg Config, transport http.RoundTripper, opts ...Option) (*Repository, error) {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &Repository{
		cfg:         cfg,
		bulkWorkers: DefaultBulkWorkers,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "elastic-repository", "alias", cfg.IndexAlias)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		RetryOnError: func(_ *http.Request, err error) bool {
			return !errors.Is(err, context.Canceled)
		},
		DisableRetry: cfg.MaxRetries == 0,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}
	r.client = client
	return r, nil
}

// indexName is the concrete index the alias points at.
func (r *Repository) indexName() string {
	return r.cfg.IndexAlias + "-1"
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.RequestTimeout)
}

func (r *Repository) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

// Name implements storage.Repository.
func (r *Repository) Name() string {
	return "Elasticsearch"
}

// Ping checks the cluster answers.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.Ping(r.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("%w: ping returned %s", storage.ErrBackendUnavailable, res.Status())
	}
	return nil
}

// Close marks the repository closed. The HTTP client holds no resources that
// need releasing.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Prepare creates "<alias>-1" with the embedded settings and mappings and
// points the alias at it, unless the alias already exists.
func (r *Repository) Prepare(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.Indices.ExistsAlias(
		[]string{r.cfg.IndexAlias},
		r.client.Indices.ExistsAlias.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	res.Body.Close()
	switch {
	case res.StatusCode == http.StatusOK:
		r.logger.Info("found index alias, skipping index creation")
		return nil
	case res.StatusCode != http.StatusNotFound:
		return fmt.Errorf("%w: exists alias: %s", ErrResponse, res.Status())
	}

	r.logger.Info("index alias not found, creating index", "index", r.indexName())
	res, err = r.client.Indices.Create(
		r.indexName(),
		r.client.Indices.Create.WithBody(bytes.NewReader(indexMapping)),
		r.client.Indices.Create.WithContext(ctx),
	)
	if err := checkResponse(res, err, "create index"); err != nil {
		return err
	}

	res, err = r.client.Indices.PutAlias(
		[]string{r.indexName()},
		r.cfg.IndexAlias,
		r.client.Indices.PutAlias.WithContext(ctx),
	)
	return checkResponse(res, err, "put alias")
}

// AddWines streams records through a bulk indexer. Per-document failures are
// logged and excluded from the returned count.
func (r *Repository) AddWines(ctx context.Context, wines ...core.EmbeddedWine) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	if len(wines) == 0 {
		return 0, nil
	}

	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     r.client,
		Index:      r.cfg.IndexAlias,
		NumWorkers: r.bulkWorkers,
		OnError: func(_ context.Context, err error) {
			r.logger.Error("bulk indexer error", "error", err)
		},
	})
	if err != nil {
		return 0, fmt.Errorf("creating bulk indexer: %w", err)
	}

	var failed atomic.Int64
	for i := range wines {
		body, err := json.Marshal(newDocument(&wines[i]))
		if err != nil {
			bi.Close(ctx)
			return 0, fmt.Errorf("%w: wine %d: %w", storage.ErrSerializationFailed, wines[i].ID, err)
		}
		err = bi.Add(ctx, esutil.BulkIndexerItem{
			Action:     "index",
			DocumentID: strconv.FormatInt(wines[i].ID, 10),
			Body:       bytes.NewReader(body),
			OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, resp esutil.BulkIndexerResponseItem, err error) {
				failed.Add(1)
				if err != nil {
					r.logger.Error("failed to index document", "id", item.DocumentID, "error", err)
					return
				}
				r.logger.Error("failed to index document", "id", item.DocumentID,
					"type", resp.Error.Type, "reason", resp.Error.Reason)
			},
		})
		if err != nil {
			bi.Close(ctx)
			return 0, fmt.Errorf("adding to bulk indexer: %w", err)
		}
	}
	if err := bi.Close(ctx); err != nil {
		return 0, fmt.Errorf("flushing bulk indexer: %w", err)
	}

	stats := bi.Stats()
	if n := failed.Load(); n > 0 {
		r.logger.Warn("bulk load finished with failures", "indexed", stats.NumFlushed, "failed", n)
	}
	return int(stats.NumFlushed), nil
}

// BuildIndexes refreshes the index so new documents become searchable.
// Elasticsearch maintains its indexes on write.
func (r *Repository) BuildIndexes(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.Indices.Refresh(
		r.client.Indices.Refresh.WithIndex(r.cfg.IndexAlias),
		r.client.Indices.Refresh.WithContext(ctx),
	)
	return checkResponse(res, err, "refresh")
}

// Count returns the number of documents behind the alias.
func (r *Repository) Count(ctx context.Context) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.client.Count(
		r.client.Count.WithIndex(r.cfg.IndexAlias),
		r.client.Count.WithContext(ctx),
	)
	var out countResponse
	if err := decodeResponse(res, err, "count", &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// FullTextSearch runs a fuzzy multi_match query ranked by points.
func (r *Repository) FullTextSearch(ctx context.Context, q storage.TextQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	return r.search(ctx, fullTextBody(q))
}

// VectorSearch ranks every document by cosine similarity with a script_score
// query. Elasticsearch computes it exactly, so Probes is ignored.
func (r *Repository) VectorSearch(ctx context.Context, q storage.VectorQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	if err := core.ValidateVector(q.Vector); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrDimensionMismatch, err)
	}
	return r.search(ctx, vectorBody(q))
}

func (r *Repository) search(ctx context.Context, body map[string]any) ([]core.SearchResult, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.cfg.IndexAlias),
		r.client.Search.WithBody(bytes.NewReader(data)),
	)
	var out searchResponse
	if err := decodeResponse(res, err, "search", &out); err != nil {
		if res != nil && res.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %w", ErrAliasMissing, err)
		}
		return nil, err
	}
	return out.results(), nil
}

// checkResponse closes res and converts transport errors and error statuses.
func checkResponse(res *esapi.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrBackendUnavailable, op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w: %s: %s: %s", ErrResponse, op, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}

// decodeResponse is checkResponse plus decoding of a successful body into out.
func decodeResponse(res *esapi.Response, err error, op string, out any) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrBackendUnavailable, op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("%w: %s: %s: %s", ErrResponse, op, res.Status(), bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s response: %w", storage.ErrSerializationFailed, op, err)
	}
	return nil
}
