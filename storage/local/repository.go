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


package local

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

const (
	// DefaultTable is the table name used when none is configured.
	DefaultTable = "wines"

	tableDir = "table"
	indexDir = "fts.bleve"

	defaultIndexBatchSize = 1000
)

// Repository is an embedded backend: a badger table holding the records and a
// bleve index built from it offline.
type Repository struct {
	root           string
	table          string
	inMemory       bool
	reset          bool
	indexBatchSize int
	logger         *slog.Logger

	backend *Backend

	mu     sync.RWMutex
	index  bleve.Index
	closed bool
}

var _ storage.WineRepository = (*Repository)(nil)

// NewRepository opens the table under dbPath/<table>. An index built by an
// earlier run is reopened; otherwise searches return storage.ErrIndexNotBuilt
// until BuildIndexes runs.
func NewRepository(dbPath string, opts ...Option) (storage.WineRepository, error) {
	r, err := newRepository(dbPath, false, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NewMemoryRepository creates a repository that keeps the table and index in
// memory.
func NewMemoryRepository(opts ...Option) (storage.WineRepository, error) {
	r, err := newRepository("", true, opts...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func newRepository(dbPath string, inMemory bool, opts ...Option) (*Repository, error) {
	r := &Repository{
		root:           dbPath,
		table:          DefaultTable,
		inMemory:       inMemory,
		indexBatchSize: defaultIndexBatchSize,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "local-repository", "table", r.table)

	backend, err := OpenBackend(r.tablePath(), inMemory, r.logger)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	r.backend = backend

	if !inMemory {
		index, err := bleve.Open(r.indexPath())
		switch {
		case err == nil:
			r.index = index
		case err == bleve.ErrorIndexPathDoesNotExist:
			r.logger.Debug("no full-text index on disk yet")
		default:
			backend.Close()
			return nil, fmt.Errorf("opening index: %w", err)
		}
	}
	return r, nil
}

func (r *Repository) dir() string {
	return filepath.Join(r.root, r.table)
}

func (r *Repository) tablePath() string {
	return filepath.Join(r.dir(), tableDir)
}

func (r *Repository) indexPath() string {
	return filepath.Join(r.dir(), indexDir)
}

// Name implements storage.Repository.
func (r *Repository) Name() string {
	return "local"
}

// Ping reports whether the table is open.
func (r *Repository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed || r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Close releases the index and the table.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var indexErr error
	if r.index != nil {
		indexErr = r.index.Close()
		r.index = nil
	}
	if err := r.backend.Close(); err != nil {
		return err
	}
	return indexErr
}

// Prepare discards existing data when the repository was opened with
// WithReset(true). Otherwise new records are merged into the table.
func (r *Repository) Prepare(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}
	if !r.reset {
		return nil
	}

	r.logger.Info("resetting table and index")
	if err := r.dropIndex(); err != nil {
		return err
	}
	if err := r.backend.DropAll(); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

// AddWines writes records to the table. They become searchable after
// BuildIndexes.
func (r *Repository) AddWines(ctx context.Context, wines ...core.EmbeddedWine) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, storage.ErrStorageClosed
	}
	if len(wines) == 0 {
		return 0, nil
	}
	for i := range wines {
		if err := core.ValidateVector(wines[i].Vector); err != nil {
			return 0, fmt.Errorf("%w: wine %d: %w", storage.ErrDimensionMismatch, wines[i].ID, err)
		}
	}
	if err := r.backend.PutWines(wines); err != nil {
		return 0, err
	}
	return len(wines), nil
}

// Count returns the number of records in the table.
func (r *Repository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return 0, storage.ErrStorageClosed
	}
	return r.backend.Count()
}

// ScanWines calls fn for every stored record in ID order. The repository
// lock is not held while fn runs, so fn may write back through AddWines.
func (r *Repository) ScanWines(ctx context.Context, fn func(core.EmbeddedWine) error) error {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return storage.ErrStorageClosed
	}
	return r.backend.Scan(ctx, func(w *core.EmbeddedWine) error {
		return fn(*w)
	})
}

// FullTextSearch runs a bleve match query over the to_vectorize field.
// Results are in bleve's relevance order.
func (r *Repository) FullTextSearch(ctx context.Context, q storage.TextQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	if r.index == nil {
		return nil, storage.ErrIndexNotBuilt
	}

	res, err := r.index.SearchInContext(ctx, buildFullTextRequest(q))
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	return r.resolveHits(res)
}

// VectorSearch returns the records nearest to the query vector.
func (r *Repository) VectorSearch(ctx context.Context, q storage.VectorQuery) ([]core.SearchResult, error) {
	q = q.Normalize()
	if err := core.ValidateVector(q.Vector); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrDimensionMismatch, err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	return r.vectorSearch(ctx, q)
}

// resolveHits loads the records behind bleve hits, keeping hit order.
func (r *Repository) resolveHits(res *bleve.SearchResult) ([]core.SearchResult, error) {
	ids := make([]int64, 0, len(res.Hits))
	scores := make(map[int64]float32, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := parseDocID(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: document id %q", storage.ErrSerializationFailed, hit.ID)
		}
		ids = append(ids, id)
		scores[id] = float32(hit.Score)
	}

	wines, err := r.backend.GetWines(ids)
	if err != nil {
		return nil, err
	}
	results := make([]core.SearchResult, 0, len(wines))
	for _, w := range wines {
		results = append(results, w.Result(scores[w.ID]))
	}
	return results, nil
}
