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


//go:build vectors

package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// addVectorMapping adds the embedding field when built with -tags vectors.
// bleve backs it with a FAISS IVF index.
func addVectorMapping(m *mapping.IndexMappingImpl, dims int) {
	vectorField := mapping.NewVectorFieldMapping()
	vectorField.Dims = dims
	vectorField.Similarity = "cosine"
	vectorField.VectorIndexOptimizedFor = "recall"
	m.DefaultMapping.AddFieldMappingsAt(fieldVector, vectorField)
}

func addVectorField(doc map[string]any, vector []float32) {
	doc[fieldVector] = vector
}

// vectorSearch runs a KNN query against the bleve vector field. The probe
// count is passed as the percentage of IVF clusters to visit.
func (r *Repository) vectorSearch(ctx context.Context, q storage.VectorQuery) ([]core.SearchResult, error) {
	if r.index == nil {
		return nil, storage.ErrIndexNotBuilt
	}

	req := bleve.NewSearchRequest(bleve.NewMatchNoneQuery())
	req.AddKNN(fieldVector, q.Vector, int64(q.Limit), 1.0)
	params, err := json.Marshal(map[string]int{"ivf_nprobe_pct": min(q.Probes, 100)})
	if err != nil {
		return nil, err
	}
	req.KNN[len(req.KNN)-1].Params = params
	req.Size = q.Limit

	res, err := r.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return r.resolveHits(res)
}
