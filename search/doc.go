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


// Package search dispatches wine queries to a storage backend.
//
// The Searcher type supports two query shapes:
//   - full-text search over titles and descriptions
//   - vector search using the sentence embedding of the query
//
// Backend calls run on a bounded worker pool shared by all callers, so the
// number of concurrent backend requests is capped regardless of how many HTTP
// requests are in flight.
package search
