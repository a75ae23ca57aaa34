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


package core

const (
	// VectorDims is the length of every sentence embedding stored or queried.
	VectorDims = 384

	// UnknownCountry is written into Country when the dataset has no value,
	// so the field is always queryable.
	UnknownCountry = "Unknown"
)

// ResultFields lists the fields projected into a SearchResult, in response order.
var ResultFields = []string{"id", "title", "description", "country", "variety", "price", "points"}

// RawWine is one line of the wine reviews dataset as decoded from JSON.
// Pointer fields distinguish a missing or null value from an empty one.
type RawWine struct {
	ID                  *int64   `json:"id"`
	Points              *int     `json:"points"`
	Title               *string  `json:"title"`
	Description         *string  `json:"description"`
	Price               *float64 `json:"price"`
	Variety             *string  `json:"variety"`
	Winery              *string  `json:"winery"`
	Designation         *string  `json:"designation"`
	Vineyard            *string  `json:"vineyard"`
	Country             *string  `json:"country"`
	Province            *string  `json:"province"`
	Region1             *string  `json:"region_1"`
	Region2             *string  `json:"region_2"`
	TasterName          *string  `json:"taster_name"`
	TasterTwitterHandle *string  `json:"taster_twitter_handle"`
}

// Wine is a validated, normalized wine review.
type Wine struct {
	ID                  int64    `json:"id"`
	Points              int      `json:"points"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Price               *float64 `json:"price"`
	Variety             string   `json:"variety"`
	Winery              string   `json:"winery"`
	Vineyard            string   `json:"vineyard"`
	Country             string   `json:"country"`
	Province            string   `json:"province"`
	Region1             string   `json:"region_1"`
	Region2             string   `json:"region_2"`
	TasterName          string   `json:"taster_name"`
	TasterTwitterHandle string   `json:"taster_twitter_handle"`
	ToVectorize         string   `json:"to_vectorize"`
}

// EmbeddedWine is a Wine together with the sentence embedding of its
// ToVectorize text. It is created once at index time and never mutated.
type EmbeddedWine struct {
	Wine
	Vector []float32 `json:"vector"`
}

// SearchResult is the read projection of a Wine returned to API callers.
type SearchResult struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Country     string   `json:"country"`
	Variety     string   `json:"variety"`
	Price       *float64 `json:"price"`
	Points      int      `json:"points"`
	Score       float32  `json:"score,omitempty"`
}

// Result projects a Wine into a SearchResult with the given score.
func (w *Wine) Result(score float32) SearchResult {
	return SearchResult{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Country:     w.Country,
		Variety:     w.Variety,
		Price:       w.Price,
		Points:      w.Points,
		Score:       score,
	}
}
