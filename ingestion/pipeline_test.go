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


package ingestion_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/winesearch/ai"
	"github.com/poiesic/winesearch/ai/mock"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/poiesic/winesearch/storage"
	"github.com/poiesic/winesearch/storage/local"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func rawWines(n int) []core.RawWine {
	raws := make([]core.RawWine, n)
	varieties := []string{"Pinot Noir", "Riesling", "Malbec"}
	for i := range raws {
		raws[i] = core.RawWine{
			ID:          ptr(int64(i + 1)),
			Points:      ptr(80 + i%20),
			Title:       ptr(fmt.Sprintf("Wine %d", i+1)),
			Description: ptr("Bright acidity with notes of cherry and spice."),
			Variety:     ptr(varieties[i%len(varieties)]),
			Country:     ptr("France"),
		}
	}
	return raws
}

func newEncoder(t *testing.T, embedder *mock.MockEmbedder) *ai.Encoder {
	t.Helper()
	enc, err := ai.NewEncoder(embedder, ai.NewConfig(ai.WithQueryCacheSize(0)))
	require.NoError(t, err)
	t.Cleanup(enc.Close)
	return enc
}

func newRepository(t *testing.T) storage.WineRepository {
	t.Helper()
	repo, err := local.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewPipeline_Validation(t *testing.T) {
	enc := newEncoder(t, mock.NewMockEmbedder())
	repo := newRepository(t)

	_, err := ingestion.NewPipeline(nil, enc)
	assert.ErrorIs(t, err, ingestion.ErrLoaderRequired)

	_, err = ingestion.NewPipeline(repo, nil)
	assert.ErrorIs(t, err, ingestion.ErrEncoderRequired)

	_, err = ingestion.NewPipeline(repo, enc, ingestion.WithChunkSize(0))
	assert.Error(t, err)

	_, err = ingestion.NewPipeline(repo, enc, ingestion.WithMaxRetries(0))
	assert.ErrorIs(t, err, ingestion.ErrInvalidMaxAttempts)
}

func TestPipeline_Run(t *testing.T) {
	ctx := context.Background()
	embedder := mock.NewMockEmbedder()
	repo := newRepository(t)

	var out bytes.Buffer
	p, err := ingestion.NewPipeline(repo, newEncoder(t, embedder),
		ingestion.WithChunkSize(4),
		ingestion.WithWorkers(3),
		ingestion.WithProgress(&out))
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Run(ctx, rawWines(10))
	require.NoError(t, err)

	assert.Equal(t, 10, report.Validated)
	assert.Equal(t, 10, report.Embedded)
	assert.Equal(t, 10, report.Loaded)
	assert.Zero(t, report.DroppedBatches)
	assert.Equal(t, 3, embedder.CallCount(), "one embedding call per chunk")
	assert.Contains(t, report.Durations, ingestion.StageValidate)
	assert.Contains(t, report.Durations, ingestion.StageLoad)
	assert.Contains(t, report.Durations, ingestion.StageIndex)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	// Indexes are built by Run, so both search paths work.
	hits, err := repo.FullTextSearch(ctx, storage.TextQuery{Terms: "riesling"})
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	vector := mock.DeterministicVector("malbec wine 3 bright acidity with notes of cherry and spice.", core.VectorDims)
	hits, err = repo.VectorSearch(ctx, storage.VectorQuery{Vector: vector, Limit: 1})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(3), hits[0].ID)

	text := out.String()
	assert.Contains(t, text, "Validated data in")
	assert.Contains(t, text, "Built indexes in")
	assert.Contains(t, text, "Finished inserting 10 records")
}

func TestPipeline_EmbedsLowercasedText(t *testing.T) {
	var seen atomic.Value
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		seen.Store(append([]string(nil), texts...))
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, core.VectorDims)
		}
		return out, nil
	}

	p, err := ingestion.NewPipeline(newRepository(t), newEncoder(t, embedder))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), rawWines(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"pinot noir wine 1 bright acidity with notes of cherry and spice."}, seen.Load())
}

func TestPipeline_InvalidRecordAborts(t *testing.T) {
	raws := rawWines(3)
	raws[1].Title = nil

	repo := newRepository(t)
	p, err := ingestion.NewPipeline(repo, newEncoder(t, mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Run(context.Background(), raws)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidWine)
	assert.Contains(t, err.Error(), "record 2")
	assert.Zero(t, report.Loaded)
}

func TestPipeline_DropsFailedBatches(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		for _, text := range texts {
			if strings.Contains(text, "wine 5 ") {
				return nil, errors.New("model unavailable")
			}
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, core.VectorDims)
		}
		return out, nil
	}

	repo := newRepository(t)
	p, err := ingestion.NewPipeline(repo, newEncoder(t, embedder),
		ingestion.WithChunkSize(4),
		ingestion.WithMaxRetries(2),
		ingestion.WithRetryDelay(time.Millisecond))
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Run(context.Background(), rawWines(10))
	require.NoError(t, err)
	assert.Equal(t, 1, report.DroppedBatches)
	assert.Equal(t, 6, report.Embedded)
	assert.Equal(t, 6, report.Loaded)
	assert.Equal(t, 4, embedder.CallCount(), "failed chunk is attempted twice")

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

// failingLoader rejects every bulk load.
type failingLoader struct {
	storage.Loader
}

func (failingLoader) AddWines(context.Context, ...core.EmbeddedWine) (int, error) {
	return 0, errors.New("disk full")
}

func TestPipeline_LoadFailureAborts(t *testing.T) {
	p, err := ingestion.NewPipeline(failingLoader{Loader: newRepository(t)}, newEncoder(t, mock.NewMockEmbedder()),
		ingestion.WithChunkSize(2))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Run(context.Background(), rawWines(6))
	require.Error(t, err)
	assert.ErrorIs(t, err, ingestion.ErrLoadFailed)
}

func TestPipeline_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		cancel()
		return nil, ctx.Err()
	}

	p, err := ingestion.NewPipeline(newRepository(t), newEncoder(t, embedder), ingestion.WithChunkSize(2))
	require.NoError(t, err)
	defer p.Release()

	report, err := p.Run(ctx, rawWines(4))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.DroppedBatches)
}
