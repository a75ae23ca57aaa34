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

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// NewLoadedMemoryRepository creates an in-memory repository holding wines with
// its indexes built, for tests.
// Caller must close the repository when done.
func NewLoadedMemoryRepository(ctx context.Context, wines ...core.EmbeddedWine) (storage.WineRepository, error) {
	repo, err := NewMemoryRepository()
	if err != nil {
		return nil, err
	}
	if err := repo.Prepare(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	if _, err := repo.AddWines(ctx, wines...); err != nil {
		repo.Close()
		return nil, err
	}
	if err := repo.BuildIndexes(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}
