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


package bench

import (
	"math/rand/v2"
	"path/filepath"

	"github.com/poiesic/winesearch/dataset"
	"github.com/poiesic/winesearch/search"
)

// DefaultSeed seeds query selection.
const DefaultSeed = 37

// DefaultQueriesDir holds the query term files.
const DefaultQueriesDir = "benchmark_queries"

// TermsFile returns the query terms file for a search kind.
func TermsFile(dir string, kind search.Kind) string {
	if kind == search.KindVector {
		return filepath.Join(dir, dataset.VectorTermsFile)
	}
	return filepath.Join(dir, dataset.KeywordTermsFile)
}

// Choose returns n queries drawn from terms with replacement. The same seed
// always yields the same sequence.
func Choose(terms []string, n int, seed int64) []string {
	if len(terms) == 0 || n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	out := make([]string, n)
	for i := range out {
		out[i] = terms[rng.IntN(len(terms))]
	}
	return out
}

// LoadQueries reads the terms file for kind from dir and draws n queries.
func LoadQueries(dir string, kind search.Kind, n int, seed int64) ([]string, error) {
	terms, err := dataset.ReadQueryTerms(TermsFile(dir, kind))
	if err != nil {
		return nil, err
	}
	return Choose(terms, n, seed), nil
}
