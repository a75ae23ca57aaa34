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


// Package winesearch wires settings, a search backend and an embedding
// provider into a ready-to-use Database.
package winesearch

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/winesearch/ai"
	"github.com/poiesic/winesearch/ai/ollama"
	"github.com/poiesic/winesearch/ai/openai"
	"github.com/poiesic/winesearch/api"
	"github.com/poiesic/winesearch/config"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/poiesic/winesearch/search"
	"github.com/poiesic/winesearch/storage"
	"github.com/poiesic/winesearch/storage/elastic"
	"github.com/poiesic/winesearch/storage/local"
	"github.com/poiesic/winesearch/storage/qdrant"
)

// Database owns the backend repository, the embedding provider and the
// encoder built on it.
type Database struct {
	settings   *config.Settings
	repository storage.WineRepository
	provider   ai.Provider
	encoder    *ai.Encoder
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger     *slog.Logger
	provider   ai.Provider
	repository storage.WineRepository
	reset      bool
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProvider uses provider instead of building one from the settings.
// The Database takes ownership and closes it.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithRepository uses repository instead of opening the configured backend.
// The Database takes ownership and closes it.
func WithRepository(repository storage.WineRepository) DatabaseOption {
	return func(o *databaseOptions) {
		o.repository = repository
	}
}

// WithReset discards existing local backend data when the next load is
// prepared. It has no effect on remote backends.
func WithReset(reset bool) DatabaseOption {
	return func(o *databaseOptions) {
		o.reset = reset
	}
}

// NewDatabase opens the backend selected by settings and connects the
// embedding provider.
func NewDatabase(settings *config.Settings, opts ...DatabaseOption) (*Database, error) {
	if settings == nil {
		settings = config.Default()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	aiConfig := settings.AIConfig()
	if err := aiConfig.Validate(); err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = NewProvider(aiConfig)
		if err != nil {
			return nil, err
		}
	}

	encoder, err := ai.NewEncoder(provider.Embedder(), aiConfig, ai.WithEncoderLogger(options.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	repository := options.repository
	if repository == nil {
		repository, err = OpenRepository(settings, options.logger, options.reset)
		if err != nil {
			encoder.Close()
			provider.Close()
			return nil, err
		}
	}

	options.logger.Info("database opened",
		"backend", repository.Name(),
		"embedder", provider.Name(),
		"model", aiConfig.EmbeddingModel)

	return &Database{
		settings:   settings,
		repository: repository,
		provider:   provider,
		encoder:    encoder,
		logger:     options.logger,
	}, nil
}

// NewProvider builds the embedding provider named by config.Provider.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	switch config.Provider {
	case ai.ProviderOllama:
		return ollama.NewProvider(config)
	case ai.ProviderOpenAI, "":
		return openai.NewProvider(config)
	}
	return nil, fmt.Errorf("unknown embedding provider %q", config.Provider)
}

// OpenRepository opens the backend named by settings.Backend.
func OpenRepository(settings *config.Settings, logger *slog.Logger, reset bool) (storage.WineRepository, error) {
	switch settings.Backend {
	case config.BackendLocal:
		return local.NewRepository(settings.LocalDBPath,
			local.WithTable(settings.LocalTable),
			local.WithReset(reset),
			local.WithLogger(logger))
	case config.BackendQdrant:
		return qdrant.NewRepository(settings.QdrantURL,
			qdrant.WithCollection(settings.QdrantCollection),
			qdrant.WithLogger(logger))
	case config.BackendElastic:
		return elastic.NewRepository(elastic.Config{
			Addresses:  []string{settings.ElasticAddress()},
			Username:   settings.ElasticUser,
			Password:   settings.ElasticPassword,
			IndexAlias: settings.ElasticIndexAlias,
			MaxRetries: elastic.DefaultMaxRetries,
		}, elastic.WithLogger(logger))
	}
	return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalidSettings, settings.Backend)
}

// Close releases the encoder, the provider and the repository.
func (db *Database) Close() error {
	db.encoder.Close()

	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing embedding provider", "embedder", db.provider.Name(), "err", err)
	}

	if err := db.repository.Close(); err != nil {
		db.logger.Error("error closing repository", "backend", db.repository.Name(), "err", err)
		return err
	}
	return nil
}

// Settings returns the settings the database was opened with.
func (db *Database) Settings() *config.Settings {
	return db.settings
}

// Repository returns the open backend.
func (db *Database) Repository() storage.WineRepository {
	return db.repository
}

// Encoder returns the shared query and record encoder.
func (db *Database) Encoder() *ai.Encoder {
	return db.encoder
}

// NewIngestionPipeline creates a pipeline loading into the backend.
// Caller must Release it.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(db.logger)}, opts...)
	return ingestion.NewPipeline(db.repository, db.encoder, opts...)
}

// NewSearcher creates a searcher over the backend. Caller must Release it.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher(db.repository, db.encoder, opts...)
}

// NewServer creates an HTTP server answering queries through searcher.
func (db *Database) NewServer(searcher api.Searcher, opts ...api.Option) (*api.Server, error) {
	opts = append([]api.Option{api.WithLogger(db.logger)}, opts...)
	return api.NewServer(searcher, db.repository, opts...)
}
