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


// Package ai provides the embedding layer for winesearch.
//
// Records and queries are embedded with the same sentence embedding model so
// that nearest-neighbour search over record vectors finds semantically similar
// reviews. The model itself runs in an external service; this package only
// talks to it.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Provider: Owns an Embedder and the client behind it
//
// # Implementation Packages
//
//   - ai/openai: any OpenAI-compatible /v1/embeddings server
//   - ai/ollama: Ollama's native API
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Encoder
//
// Encoder wraps an Embedder with the conventions every caller relies on:
// text is trimmed and lower-cased before embedding, vectors are checked
// against Config.Dimensions, and query embeddings are kept in a bounded
// in-memory cache.
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	encoder, err := ai.NewEncoder(provider.Embedder(), config)
//	vector, err := encoder.EncodeQuery(ctx, "tuscan red with cherry notes")
package ai
