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


package elastic

import (
	"strings"

	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

// vectorScript scores by cosine similarity shifted into [0, 2], since
// Elasticsearch rejects negative scores.
const vectorScript = "cosineSimilarity(params.queryVector, 'vector') + 1.0"

// fullTextBody builds a fuzzy multi_match over title and description, sorted
// by points descending. At least two terms must match when the query has two
// or more.
func fullTextBody(q storage.TextQuery) map[string]any {
	terms := strings.ToLower(strings.TrimSpace(q.Terms))
	return map[string]any{
		"size":    q.Limit,
		"_source": core.ResultFields,
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{
						"multi_match": map[string]any{
							"query":                terms,
							"fields":               []string{"title", "description"},
							"minimum_should_match": minimumShouldMatch(terms),
							"fuzziness":            "AUTO",
						},
					},
				},
			},
		},
		"sort": []any{
			map[string]any{"points": map[string]any{"order": "desc"}},
		},
	}
}

func minimumShouldMatch(terms string) int {
	return min(2, max(1, len(strings.Fields(terms))))
}

// vectorBody builds a brute-force script_score query over every document.
func vectorBody(q storage.VectorQuery) map[string]any {
	return map[string]any{
		"size":    q.Limit,
		"_source": core.ResultFields,
		"query": map[string]any{
			"script_score": map[string]any{
				"query": map[string]any{"match_all": map[string]any{}},
				"script": map[string]any{
					"source": vectorScript,
					"params": map[string]any{"queryVector": q.Vector},
				},
			},
		},
	}
}

// document is the indexed form of a wine. to_vectorize is not stored.
type document struct {
	ID                  int64     `json:"id"`
	Points              int       `json:"points"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Price               *float64  `json:"price"`
	Variety             string    `json:"variety"`
	Winery              string    `json:"winery"`
	Vineyard            string    `json:"vineyard"`
	Country             string    `json:"country"`
	Province            string    `json:"province"`
	Region1             string    `json:"region_1"`
	Region2             string    `json:"region_2"`
	TasterName          string    `json:"taster_name"`
	TasterTwitterHandle string    `json:"taster_twitter_handle"`
	Vector              []float32 `json:"vector"`
}

func newDocument(w *core.EmbeddedWine) document {
	return document{
		ID:                  w.ID,
		Points:              w.Points,
		Title:               w.Title,
		Description:         w.Description,
		Price:               w.Price,
		Variety:             w.Variety,
		Winery:              w.Winery,
		Vineyard:            w.Vineyard,
		Country:             w.Country,
		Province:            w.Province,
		Region1:             w.Region1,
		Region2:             w.Region2,
		TasterName:          w.TasterName,
		TasterTwitterHandle: w.TasterTwitterHandle,
		Vector:              w.Vector,
	}
}

// searchResponse is the subset of the _search response that is read.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  *float32          `json:"_score"`
			Source core.SearchResult `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *searchResponse) results() []core.SearchResult {
	results := make([]core.SearchResult, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		res := hit.Source
		if hit.Score != nil {
			res.Score = *hit.Score
		}
		results = append(results, res)
	}
	return results
}

type countResponse struct {
	Count int `json:"count"`
}
