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


// Package api serves wine search over HTTP.
//
// Routes:
//
//	GET /                      service banner
//	GET /fts_search?query=     full-text search, 10 results
//	GET /vector_search?query=  vector search, 10 results
//	GET /search?terms=         vector search, 5 results
//	GET /health                backend reachability
//
// Search routes answer with a JSON array of results, 404 when nothing
// matches, 422 when the query parameter is missing or blank, and 500 when the
// backend fails. Error bodies have the form {"detail": "..."}.
package api
