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


package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Encoder turns record and query text into embeddings. Text is lower-cased
// before embedding and every returned vector is checked against the
// configured dimensions. Query embeddings are cached.
type Encoder struct {
	embedder Embedder
	dims     int
	cache    *queryCache
	logger   *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder) error

// WithEncoderLogger sets the logger for the encoder.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return func(e *Encoder) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEncoder wraps embedder using the dimensions and cache size from config.
func NewEncoder(embedder Embedder, config *Config, opts ...EncoderOption) (*Encoder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ai encoder: embedder is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Encoder{
		embedder: embedder,
		dims:     config.Dimensions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "encoder")

	if config.QueryCacheSize > 0 {
		cache, err := newQueryCache(config.QueryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("ai encoder: creating cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Dimensions returns the embedding length produced by the encoder.
func (e *Encoder) Dimensions() int {
	return e.dims
}

// EncodeQuery embeds a single search query.
func (e *Encoder) EncodeQuery(ctx context.Context, query string) ([]float32, error) {
	text := normalizeText(query)
	if text == "" {
		return nil, ErrEmptyText
	}

	if e.cache != nil {
		if v, ok := e.cache.get(text); ok {
			e.logger.Debug("query embedding cache hit")
			return v, nil
		}
	}

	vector, err := e.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if err := e.checkDims(vector); err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.set(text, vector)
	}
	return vector, nil
}

// EncodeBatch embeds record texts in one call. The result has one vector per
// input text, in order.
func (e *Encoder) EncodeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	normalized := make([]string, len(texts))
	for i, t := range texts {
		normalized[i] = normalizeText(t)
	}

	vectors, err := e.embedder.EmbedTexts(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrEmbeddingFailed, len(vectors), len(texts))
	}
	for _, v := range vectors {
		if err := e.checkDims(v); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}

// Close releases the query cache.
func (e *Encoder) Close() {
	if e.cache != nil {
		e.cache.close()
	}
}

func (e *Encoder) checkDims(v []float32) error {
	if len(v) != e.dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), e.dims)
	}
	return nil
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
