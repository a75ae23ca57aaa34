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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) Option {
	return WithLookup(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s, err := Load(WithEnvFile(), mapLookup(nil))
		require.NoError(t, err)
		assert.Equal(t, Default(), s)
		assert.Equal(t, "http://localhost:9200", s.ElasticAddress())
		assert.Equal(t, "0.0.0.0:8000", s.APIAddress())
		require.NoError(t, s.Validate())
	})

	t.Run("environment overrides", func(t *testing.T) {
		s, err := Load(WithEnvFile(), mapLookup(map[string]string{
			"WINESEARCH_BACKEND":         "LOCAL",
			"ELASTIC_URL":                "es01",
			"ELASTIC_PORT":               "9201",
			"ELASTIC_PASSWORD":           "changeme",
			"EMBEDDING_MODEL_CHECKPOINT": "sentence-transformers/multi-qa-MiniLM-L6-cos-v1",
			"LOCAL_DB_PATH":              "/data/winemag",
			"API_PORT":                   "8005",
			"QDRANT_URL":                 "  ",
		}))
		require.NoError(t, err)
		assert.Equal(t, BackendLocal, s.Backend)
		assert.Equal(t, "http://es01:9201", s.ElasticAddress())
		assert.Equal(t, "changeme", s.ElasticPassword)
		assert.Equal(t, "/data/winemag", s.LocalDBPath)
		assert.Equal(t, 8005, s.APIPort)
		assert.Equal(t, "localhost:6334", s.QdrantURL, "blank values keep the default")
		assert.Equal(t, "sentence-transformers/multi-qa-MiniLM-L6-cos-v1", s.AIConfig().EmbeddingModel)
	})

	t.Run("bad integer", func(t *testing.T) {
		_, err := Load(WithEnvFile(), mapLookup(map[string]string{"API_PORT": "eighty"}))
		assert.ErrorIs(t, err, ErrInvalidSettings)
		assert.Contains(t, err.Error(), "API_PORT")
	})

	t.Run("dotenv file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("WINESEARCH_TEST_ALIAS=reviews\n"), 0o644))
		t.Cleanup(func() { os.Unsetenv("WINESEARCH_TEST_ALIAS") })

		_, err := Load(WithEnvFile(path), mapLookup(nil))
		require.NoError(t, err)
		assert.Equal(t, "reviews", os.Getenv("WINESEARCH_TEST_ALIAS"))
	})

	t.Run("missing dotenv file is ignored", func(t *testing.T) {
		_, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "nope.env")), mapLookup(nil))
		assert.NoError(t, err)
	})
}

func TestElasticAddressWithScheme(t *testing.T) {
	s := Default()
	s.ElasticURL = "https://es.example.com:443"
	assert.Equal(t, "https://es.example.com:443", s.ElasticAddress())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
		errMsg string
	}{
		{"unknown backend", func(s *Settings) { s.Backend = "lancedb" }, "unknown backend"},
		{"elastic without alias", func(s *Settings) { s.ElasticIndexAlias = "" }, "ELASTIC_INDEX_ALIAS"},
		{"elastic bad port", func(s *Settings) { s.ElasticPort = 0 }, "ELASTIC_PORT"},
		{"local without path", func(s *Settings) { s.Backend = BackendLocal; s.LocalDBPath = "" }, "LOCAL_DB_PATH"},
		{"qdrant without collection", func(s *Settings) { s.Backend = BackendQdrant; s.QdrantCollection = "" }, "QDRANT_COLLECTION"},
		{"bad api port", func(s *Settings) { s.APIPort = 70000 }, "API_PORT"},
		{"bad provider", func(s *Settings) { s.EmbeddingProvider = "bedrock" }, "unknown provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.modify(s)
			err := s.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
