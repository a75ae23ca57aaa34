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


package winesearch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/winesearch/ai"
	"github.com/poiesic/winesearch/ai/mock"
	"github.com/poiesic/winesearch/config"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
	"github.com/poiesic/winesearch/storage/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Default()
	s.Backend = config.BackendLocal
	s.LocalDBPath = t.TempDir()
	return s
}

func ptr[T any](v T) *T { return &v }

func TestNewDatabase(t *testing.T) {
	t.Run("local backend with mock provider", func(t *testing.T) {
		db, err := NewDatabase(localSettings(t), WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Repository())
		assert.NotNil(t, db.Encoder())
		assert.Equal(t, "local", db.Repository().Name())
		assert.NoError(t, db.Repository().Ping(context.Background()))
	})

	t.Run("unknown backend", func(t *testing.T) {
		s := localSettings(t)
		s.Backend = "lancedb"
		db, err := NewDatabase(s, WithProvider(mock.NewMockProvider()))
		assert.ErrorIs(t, err, config.ErrInvalidSettings)
		assert.Nil(t, db)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		s := localSettings(t)
		s.LocalDBPath = filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(s.LocalDBPath, []byte("test"), 0o644))

		db, err := NewDatabase(s, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("injected repository", func(t *testing.T) {
		repo, err := local.NewMemoryRepository()
		require.NoError(t, err)
		provider := mock.NewMockProvider()
		db, err := NewDatabase(nil, WithProvider(provider), WithRepository(repo))
		require.NoError(t, err)
		assert.Same(t, repo, db.Repository())
		assert.Equal(t, config.BackendElastic, db.Settings().Backend)
		assert.NoError(t, db.Close())
		assert.True(t, provider.Closed())
		assert.ErrorIs(t, repo.Ping(context.Background()), storage.ErrStorageClosed)
	})
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(ai.NewConfig(ai.WithProvider(ai.ProviderOllama), ai.WithEmbeddingHost("http://localhost:11434")))
	require.NoError(t, err)
	assert.NoError(t, p.Close())

	p, err = NewProvider(ai.NewConfig())
	require.NoError(t, err)
	assert.NoError(t, p.Close())

	_, err = NewProvider(ai.NewConfig(ai.WithProvider("bedrock")))
	assert.Error(t, err)
}

func TestDatabase_IndexAndSearch(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase(localSettings(t), WithProvider(mock.NewMockProvider()), WithReset(true))
	require.NoError(t, err)
	defer db.Close()

	raws := make([]core.RawWine, 5)
	for i := range raws {
		raws[i] = core.RawWine{
			ID:          ptr(int64(i + 1)),
			Points:      ptr(85 + i),
			Title:       ptr(fmt.Sprintf("Estate %d Zinfandel", i+1)),
			Description: ptr("Jammy blackberry and pepper."),
			Variety:     ptr("Zinfandel"),
		}
	}

	pipeline, err := db.NewIngestionPipeline()
	require.NoError(t, err)
	defer pipeline.Release()
	report, err := pipeline.Run(ctx, raws)
	require.NoError(t, err)
	assert.Equal(t, 5, report.Loaded)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	defer searcher.Release()

	results, err := searcher.FullText(ctx, "zinfandel", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, core.UnknownCountry, r.Country)
	}

	results, err = searcher.Similar(ctx, "Zinfandel Estate 4 Zinfandel Jammy blackberry and pepper.", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(4), results[0].ID)

	srv, err := db.NewServer(searcher)
	require.NoError(t, err)
	assert.NotNil(t, srv.Handler())
}
