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


// Package ingestion loads the wine reviews dataset into a search backend.
//
// A Pipeline validates raw dataset records, splits them into fixed-size
// chunks, embeds each chunk concurrently on a worker pool and streams the
// embedded chunks into a storage.Loader. Once every chunk has been loaded the
// backend's indexes are built.
//
// Embedding failures are retried with exponential backoff. A chunk that still
// fails is logged with its id range and dropped; the run continues. Validation
// and loading failures abort the run.
package ingestion
