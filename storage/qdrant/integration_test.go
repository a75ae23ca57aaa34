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


//go:build integration

package qdrant

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

func qdrantAddr() string {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		return v
	}
	return "localhost:6334"
}

func TestQdrant_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := NewRepository(qdrantAddr(), WithCollection("winesearch_integration"))
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Prepare(ctx))

	vec := make([]float32, core.VectorDims)
	vec[0] = 1
	_, err = repo.AddWines(ctx, core.EmbeddedWine{
		Wine:   core.Wine{ID: 1, Points: 90, Title: "Integration Syrah", Country: "France", ToVectorize: "Syrah Integration Syrah"},
		Vector: vec,
	})
	require.NoError(t, err)
	require.NoError(t, repo.BuildIndexes(ctx))

	results, err := repo.VectorSearch(ctx, storage.VectorQuery{Vector: vec, Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(1), results[0].ID)

	results, err = repo.FullTextSearch(ctx, storage.TextQuery{Terms: "integration"})
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
