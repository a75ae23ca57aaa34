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
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/poiesic/winesearch/search"
)

// Searcher runs a wine query directly against a backend. *search.Searcher
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, kind search.Kind, query string, limit int) ([]core.SearchResult, error)
}

// Summary describes a finished benchmark run.
type Summary struct {
	Kind    search.Kind
	Queries int
	Hits    int
	Elapsed time.Duration
}

// Concurrent sends queries to the API server through c and prints the number
// of responses and the elapsed time to w.
func Concurrent(ctx context.Context, c *Client, kind search.Kind, queries []string, w io.Writer) (Summary, error) {
	start := time.Now()
	responses, err := c.RunConcurrent(ctx, kind, queries)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Kind: kind, Queries: len(responses), Elapsed: time.Since(start)}
	for _, r := range responses {
		if len(r) > 0 {
			sum.Hits++
		}
	}
	fmt.Fprintf(w, "Finished retrieving %d %s search query results\n", sum.Queries, kind)
	fmt.Fprintf(w, "Ran search in: %.4f sec\n", sum.Elapsed.Seconds())
	return sum, nil
}

// Serial runs queries one at a time through s, reporting progress to w.
func Serial(ctx context.Context, s Searcher, kind search.Kind, queries []string, w io.Writer) (Summary, error) {
	if len(queries) == 0 {
		return Summary{}, ErrNoQueries
	}

	fmt.Fprintf(w, "Performing %s search\n", kind)
	tracker := ingestion.NewProgress(w, len(queries), 1, "queries")
	tracker.Start()

	sum := Summary{Kind: kind}
	for _, q := range queries {
		results, err := s.Search(ctx, kind, q, 0)
		if err != nil {
			tracker.Finish()
			return sum, fmt.Errorf("query %q: %w", q, err)
		}
		sum.Queries++
		if len(results) > 0 {
			sum.Hits++
		}
		tracker.Add(1)
	}
	tracker.Finish()

	sum.Elapsed = tracker.Elapsed()
	fmt.Fprintf(w, "Finished search in %.4f sec\n", sum.Elapsed.Seconds())
	return sum, nil
}

// Inspect runs every full-text and vector query through c concurrently and
// prints the description of the top result for each.
func Inspect(ctx context.Context, c *Client, ftsQueries, vectorQueries []string, w io.Writer) error {
	if err := inspect(ctx, c, search.KindFullText, ftsQueries, w); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("-", 80))
	return inspect(ctx, c, search.KindVector, vectorQueries, w)
}

func inspect(ctx context.Context, c *Client, kind search.Kind, queries []string, w io.Writer) error {
	start := time.Now()
	responses, err := c.RunConcurrent(ctx, kind, queries)
	if err != nil {
		return err
	}
	for i, r := range responses {
		if len(r) == 0 {
			fmt.Fprintf(w, "Query [%s]: no results\n", queries[i])
			continue
		}
		fmt.Fprintf(w, "Query [%s]: %s\n", queries[i], r[0].Description)
	}
	fmt.Fprintf(w, "Ran search in: %.4f sec\n", time.Since(start).Seconds())
	return nil
}
