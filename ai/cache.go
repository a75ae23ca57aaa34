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

import (
	"encoding/binary"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-crypt/x/blake2b"
)

// queryCache holds query embeddings keyed by a 64-bit BLAKE2b digest of the
// normalized query text. It is safe for concurrent use.
type queryCache struct {
	cache *ristretto.Cache[uint64, []float32]
}

func newQueryCache(size int64) (*queryCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []float32]{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &queryCache{cache: cache}, nil
}

// cacheKey hashes text to a 64-bit key.
func cacheKey(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

func (c *queryCache) get(text string) ([]float32, bool) {
	return c.cache.Get(cacheKey(text))
}

func (c *queryCache) set(text string, vector []float32) {
	c.cache.Set(cacheKey(text), vector, 1)
}

// wait blocks until buffered writes are applied.
func (c *queryCache) wait() {
	c.cache.Wait()
}

func (c *queryCache) close() {
	c.cache.Close()
}
