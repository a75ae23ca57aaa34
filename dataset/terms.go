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


package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Query term files used by the benchmarks.
const (
	KeywordTermsFile = "keyword_terms.txt"
	VectorTermsFile  = "vector_terms.txt"
)

// ReadQueryTerms reads one query per line from a .txt file. Lines are
// trimmed and blank lines dropped. The file must contain at least one query.
func ReadQueryTerms(path string) ([]string, error) {
	if filepath.Ext(path) != ".txt" {
		return nil, fmt.Errorf("%w: %s must be a .txt file", ErrInvalidTermsFile, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTermsFile, err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if t := strings.TrimSpace(scanner.Text()); t != "" {
			terms = append(terms, t)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidTermsFile, path, err)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidTermsFile, path)
	}
	return terms, nil
}
