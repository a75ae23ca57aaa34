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


// Package bench measures search latency and prints query results for
// inspection.
//
// The concurrent benchmark sends one HTTP request per query to a running API
// server. The serial benchmark calls the search service directly, one query
// at a time. Both draw their queries from a terms file with a seeded random
// choice, so runs are reproducible.
package bench
