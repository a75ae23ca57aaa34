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


package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/poiesic/winesearch/ai"
)

// Supported backends.
const (
	BackendElastic = "elastic"
	BackendLocal   = "local"
	BackendQdrant  = "qdrant"
)

// Settings holds everything needed to reach the backends, the embedding
// service and to serve the API.
type Settings struct {
	Backend string

	ElasticURL        string
	ElasticPort       int
	ElasticUser       string
	ElasticPassword   string
	ElasticIndexAlias string
	ElasticService    string
	StackVersion      string
	KibanaPort        int

	EmbeddingModelCheckpoint string
	EmbeddingHost            string
	EmbeddingProvider        string

	LocalDBPath string
	LocalTable  string

	QdrantURL        string
	QdrantCollection string

	APIHost string
	APIPort int
}

// Default returns Settings with the defaults used when neither the .env file
// nor the environment set a value.
func Default() *Settings {
	return &Settings{
		Backend:                  BackendElastic,
		ElasticURL:               "localhost",
		ElasticPort:              9200,
		ElasticUser:              "elastic",
		ElasticIndexAlias:        "wines",
		ElasticService:           "elasticsearch",
		KibanaPort:               5601,
		EmbeddingModelCheckpoint: ai.DefaultConfig().EmbeddingModel,
		EmbeddingHost:            ai.DefaultConfig().EmbeddingHost,
		EmbeddingProvider:        ai.ProviderOpenAI,
		LocalDBPath:              "./winemag",
		LocalTable:               "wines",
		QdrantURL:                "localhost:6334",
		QdrantCollection:         "wines",
		APIHost:                  "0.0.0.0",
		APIPort:                  8000,
	}
}

type loader struct {
	envFiles []string
	lookup   func(string) (string, bool)
}

// Option configures Load.
type Option func(*loader)

// WithEnvFile sets the dotenv files read before the environment. Missing
// files are ignored. Defaults to ".env".
func WithEnvFile(paths ...string) Option {
	return func(l *loader) {
		l.envFiles = paths
	}
}

// WithLookup replaces os.LookupEnv, for tests.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookup = lookup
	}
}

// Load reads settings from the dotenv files and the environment. Variables
// already set in the environment take precedence over the dotenv files.
func Load(opts ...Option) (*Settings, error) {
	l := &loader{envFiles: []string{".env"}, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}

	for _, f := range l.envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidSettings, f, err)
		}
	}

	s := Default()
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := l.lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := l.lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, v))
			return
		}
		*dst = n
	}

	str("WINESEARCH_BACKEND", &s.Backend)
	str("ELASTIC_URL", &s.ElasticURL)
	num("ELASTIC_PORT", &s.ElasticPort)
	str("ELASTIC_USER", &s.ElasticUser)
	str("ELASTIC_PASSWORD", &s.ElasticPassword)
	str("ELASTIC_INDEX_ALIAS", &s.ElasticIndexAlias)
	str("ELASTIC_SERVICE", &s.ElasticService)
	str("STACK_VERSION", &s.StackVersion)
	num("KIBANA_PORT", &s.KibanaPort)
	str("EMBEDDING_MODEL_CHECKPOINT", &s.EmbeddingModelCheckpoint)
	str("EMBEDDING_HOST", &s.EmbeddingHost)
	str("EMBEDDING_PROVIDER", &s.EmbeddingProvider)
	str("LOCAL_DB_PATH", &s.LocalDBPath)
	str("LOCAL_TABLE", &s.LocalTable)
	str("QDRANT_URL", &s.QdrantURL)
	str("QDRANT_COLLECTION", &s.QdrantCollection)
	str("API_HOST", &s.APIHost)
	num("API_PORT", &s.APIPort)

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	s.Backend = strings.ToLower(s.Backend)
	return s, nil
}

// ElasticAddress returns the cluster URL. ELASTIC_URL may be a bare host,
// in which case http and ELASTIC_PORT are used.
func (s *Settings) ElasticAddress() string {
	if strings.Contains(s.ElasticURL, "://") {
		return s.ElasticURL
	}
	return fmt.Sprintf("http://%s:%d", s.ElasticURL, s.ElasticPort)
}

// APIAddress returns the listen address for the HTTP server.
func (s *Settings) APIAddress() string {
	return fmt.Sprintf("%s:%d", s.APIHost, s.APIPort)
}

// AIConfig builds the embedding configuration from the settings.
func (s *Settings) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithProvider(s.EmbeddingProvider),
		ai.WithEmbeddingHost(s.EmbeddingHost),
		ai.WithEmbeddingModel(s.EmbeddingModelCheckpoint),
	)
}

// Validate reports every missing or out-of-range value for the selected
// backend.
func (s *Settings) Validate() error {
	var errs []error
	port := func(name string, p int) {
		if p <= 0 || p > 65535 {
			errs = append(errs, fmt.Errorf("%s %d out of range", name, p))
		}
	}

	switch s.Backend {
	case BackendElastic:
		if s.ElasticURL == "" {
			errs = append(errs, errors.New("ELASTIC_URL is required"))
		}
		if s.ElasticIndexAlias == "" {
			errs = append(errs, errors.New("ELASTIC_INDEX_ALIAS is required"))
		}
		port("ELASTIC_PORT", s.ElasticPort)
	case BackendLocal:
		if s.LocalDBPath == "" {
			errs = append(errs, errors.New("LOCAL_DB_PATH is required"))
		}
		if s.LocalTable == "" {
			errs = append(errs, errors.New("LOCAL_TABLE is required"))
		}
	case BackendQdrant:
		if s.QdrantURL == "" {
			errs = append(errs, errors.New("QDRANT_URL is required"))
		}
		if s.QdrantCollection == "" {
			errs = append(errs, errors.New("QDRANT_COLLECTION is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", s.Backend))
	}
	port("API_PORT", s.APIPort)
	if err := s.AIConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}
