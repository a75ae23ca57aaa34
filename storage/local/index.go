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


package local

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// Indexed field names.
const (
	fieldToVectorize = "to_vectorize"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldPoints      = "points"
	fieldVector      = "vector"
)

// newIndexMapping builds the bleve mapping for wine documents. Only the search
// fields are indexed; result fields are read back from the table.
func newIndexMapping() *mapping.IndexMappingImpl {
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = en.AnalyzerName
	textField.Store = false
	textField.IncludeTermVectors = false

	pointsField := bleve.NewNumericFieldMapping()
	pointsField.Store = false

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false
	doc.AddFieldMappingsAt(fieldToVectorize, textField)
	doc.AddFieldMappingsAt(fieldTitle, textField)
	doc.AddFieldMappingsAt(fieldDescription, textField)
	doc.AddFieldMappingsAt(fieldPoints, pointsField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	m.DefaultAnalyzer = en.AnalyzerName
	m.StoreDynamic = false
	m.IndexDynamic = false
	addVectorMapping(m, core.VectorDims)
	return m
}

func indexDocument(w *core.EmbeddedWine) map[string]any {
	doc := map[string]any{
		fieldToVectorize: w.ToVectorize,
		fieldTitle:       w.Title,
		fieldDescription: w.Description,
		fieldPoints:      float64(w.Points),
	}
	addVectorField(doc, w.Vector)
	return doc
}

func buildFullTextRequest(q storage.TextQuery) *bleve.SearchRequest {
	match := bleve.NewMatchQuery(q.Terms)
	match.SetField(fieldToVectorize)
	req := bleve.NewSearchRequest(match)
	req.Size = q.Limit
	return req
}

// dropIndex closes and removes the current index. Caller holds r.mu.
func (r *Repository) dropIndex() error {
	if r.index != nil {
		if err := r.index.Close(); err != nil {
			return fmt.Errorf("closing index: %w", err)
		}
		r.index = nil
	}
	if r.inMemory {
		return nil
	}
	if err := os.RemoveAll(r.indexPath()); err != nil {
		return fmt.Errorf("removing index: %w", err)
	}
	return nil
}

// BuildIndexes rebuilds the full-text (and, with -tags vectors, the ANN)
// index from every record in the table.
func (r *Repository) BuildIndexes(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrStorageClosed
	}

	start := time.Now()
	if err := r.dropIndex(); err != nil {
		return err
	}

	var (
		index bleve.Index
		err   error
	)
	if r.inMemory {
		index, err = bleve.NewMemOnly(newIndexMapping())
	} else {
		index, err = bleve.New(r.indexPath(), newIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	count := 0
	batch := index.NewBatch()
	flush := func() error {
		if batch.Size() == 0 {
			return nil
		}
		if err := index.Batch(batch); err != nil {
			return err
		}
		batch.Reset()
		return nil
	}

	err = r.backend.Scan(ctx, func(w *core.EmbeddedWine) error {
		if err := batch.Index(docID(w.ID), indexDocument(w)); err != nil {
			return err
		}
		count++
		if batch.Size() >= r.indexBatchSize {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		index.Close()
		return fmt.Errorf("building index: %w", err)
	}

	r.index = index
	r.logger.Info("index built", "documents", count, "duration", time.Since(start))
	return nil
}
