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


//go:build !vectors

package local

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// addVectorMapping is a no-op when built without -tags vectors.
func addVectorMapping(_ *mapping.IndexMappingImpl, _ int) {}

func addVectorField(_ map[string]any, _ []float32) {}

// vectorSearch scans the table and ranks every record by exact cosine
// similarity. Probes are ignored.
func (r *Repository) vectorSearch(ctx context.Context, q storage.VectorQuery) ([]core.SearchResult, error) {
	results := make([]core.SearchResult, 0, q.Limit)

	err := r.backend.Scan(ctx, func(w *core.EmbeddedWine) error {
		if len(w.Vector) == 0 {
			return nil
		}
		results = append(results, w.Result(cosineSimilarity(q.Vector, w.Vector)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ties by ID
	slices.SortFunc(results, func(a, b core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

// cosineSimilarity calculates the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
