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


// Package storage defines the backend contract for winesearch.
//
// A backend stores embedded wine records and answers two query shapes: a
// lexical query over title and description, and a nearest-neighbour query over
// the record embeddings. Three implementations exist:
//
//   - elastic: Elasticsearch behind an index alias
//   - local: an embedded badger table with a bleve full-text and vector index
//   - qdrant: a Qdrant collection reached over gRPC
//
// Loading is offline. The indexing pipeline calls Prepare, streams batches
// through AddWines and then calls BuildIndexes once. At serve time backends are
// read-only and must be safe for concurrent use.
//
// Constructors in the backend packages return storage.WineRepository so callers
// do not couple to a specific engine:
//
//	repo, err := local.NewRepository(dir, local.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer repo.Close()
//
// Empty result sets are not errors. Callers decide how to report them.
package storage
