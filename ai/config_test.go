package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, 384, cfg.Dimensions)
	assert.Equal(t, int64(10000), cfg.QueryCacheSize)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderOllama),
			WithEmbeddingHost("http://ollama:11434"),
			WithEmbeddingModel("nomic-embed-text"),
			WithDimensions(768),
			WithQueryCacheSize(0),
		)

		assert.Equal(t, ProviderOllama, cfg.Provider)
		assert.Equal(t, "http://ollama:11434", cfg.EmbeddingHost)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		assert.Equal(t, 768, cfg.Dimensions)
		assert.Zero(t, cfg.QueryCacheSize)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		host     string
		want     string
	}{
		{"openai adds v1", ProviderOpenAI, "http://localhost:8080", "http://localhost:8080/v1"},
		{"openai trailing slash", ProviderOpenAI, "http://localhost:8080/", "http://localhost:8080/v1"},
		{"openai keeps v1", ProviderOpenAI, "http://localhost:8080/v1", "http://localhost:8080/v1"},
		{"ollama strips v1", ProviderOllama, "http://localhost:11434/v1", "http://localhost:11434"},
		{"ollama root", ProviderOllama, "http://localhost:11434/", "http://localhost:11434"},
		{"empty provider is openai", "", "http://h", "http://h/v1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, EmbeddingHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
		})
	}

	t.Run("empty host untouched", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Empty(t, cfg.EmbeddingHost)
		assert.Equal(t, ProviderOpenAI, cfg.Provider)
	})
}

func TestConfigValidate(t *testing.T) {
	t.Run("default is valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "bedrock" }, "unknown provider"},
		{"missing host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost is required"},
		{"missing model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel is required"},
		{"zero dimensions", func(c *Config) { c.Dimensions = 0 }, "Dimensions must be positive"},
		{"negative cache", func(c *Config) { c.QueryCacheSize = -1 }, "QueryCacheSize cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
