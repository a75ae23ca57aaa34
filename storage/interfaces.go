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


package storage

import (
	"context"

	"github.com/poiesic/winesearch/core"
)

// Default query parameters shared by every backend.
const (
	DefaultLimit  = 10
	DefaultProbes = 20
)

// TextQuery is a lexical query. Terms is the raw query string.
type TextQuery struct {
	Terms string
	Limit int
}

// VectorQuery is a nearest-neighbour query over the stored embeddings.
// Probes controls how many index partitions (or graph candidates) an
// approximate index examines; exact backends ignore it.
type VectorQuery struct {
	Vector []float32
	Limit  int
	Probes int
}

// Normalize applies defaults to zero-valued parameters.
func (q TextQuery) Normalize() TextQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	return q
}

// Normalize applies defaults to zero-valued parameters.
func (q VectorQuery) Normalize() VectorQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Probes <= 0 {
		q.Probes = DefaultProbes
	}
	return q
}

// Repository provides operations shared by all backends.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Name identifies the backend in logs and API messages.
	Name() string

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// Loader bulk-loads embedded records and builds indexes. It is only used
// offline by the indexing pipeline.
type Loader interface {
	// Prepare creates the index, table or collection the records will be
	// written to. Calling it on an already prepared backend is a no-op.
	Prepare(ctx context.Context) error

	// AddWines writes records in bulk and returns how many were accepted.
	// A record replaces any existing record with the same ID.
	AddWines(ctx context.Context, wines ...core.EmbeddedWine) (int, error)

	// BuildIndexes builds the full-text and vector indexes over every loaded
	// record. Backends that index on write treat it as a refresh.
	BuildIndexes(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Searcher runs the two query shapes. Both return an empty slice, not an
// error, when nothing matches.
type Searcher interface {
	// FullTextSearch runs a lexical query over title and description.
	FullTextSearch(ctx context.Context, q TextQuery) ([]core.SearchResult, error)

	// VectorSearch returns the records nearest to q.Vector under cosine
	// similarity, most similar first.
	VectorSearch(ctx context.Context, q VectorQuery) ([]core.SearchResult, error)
}

// WineRepository is a complete backend.
type WineRepository interface {
	Repository
	Loader
	Searcher
}
