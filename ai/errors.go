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


package ai

import "errors"

var (
	// ErrEmptyText indicates there was nothing to embed.
	ErrEmptyText = errors.New("text to embed is empty")

	// ErrEmbeddingFailed indicates the embedding service returned an error.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrDimensionMismatch indicates the service returned vectors of an
	// unexpected length.
	ErrDimensionMismatch = errors.New("embedding has unexpected dimensions")
)
