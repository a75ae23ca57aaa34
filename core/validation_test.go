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

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, line string) *RawWine {
	t.Helper()
	var raw RawWine
	require.NoError(t, json.Unmarshal([]byte(line), &raw))
	return &raw
}

func TestValidateWine(t *testing.T) {
	t.Run("normalizes a complete record", func(t *testing.T) {
		raw := decodeRaw(t, `{"id": 7, "points": 87, "title": "  Quinta dos Avidagos 2011 Avidagos Red (Douro) ",
			"description": "This is ripe and fruity. ", "price": 15.0, "variety": "Portuguese Red",
			"winery": "Quinta dos Avidagos", "designation": " Avidagos", "country": "Portugal",
			"province": "Douro", "region_1": null, "region_2": null,
			"taster_name": "Roger Voss", "taster_twitter_handle": "@vossroger"}`)

		w, err := ValidateWine(raw)
		require.NoError(t, err)

		assert.Equal(t, int64(7), w.ID)
		assert.Equal(t, 87, w.Points)
		assert.Equal(t, "Quinta dos Avidagos 2011 Avidagos Red (Douro)", w.Title)
		assert.Equal(t, "This is ripe and fruity.", w.Description)
		require.NotNil(t, w.Price)
		assert.InDelta(t, 15.0, *w.Price, 0.0001)
		assert.Equal(t, "Avidagos", w.Vineyard)
		assert.Equal(t, "Portugal", w.Country)
		assert.Empty(t, w.Region1)
		assert.Equal(t, "Portuguese Red Quinta dos Avidagos 2011 Avidagos Red (Douro) This is ripe and fruity.", w.ToVectorize)
	})

	t.Run("country defaults to Unknown", func(t *testing.T) {
		for _, country := range []string{`null`, `""`, `"null"`, `"   "`} {
			raw := decodeRaw(t, `{"id": 1, "points": 90, "title": "A wine", "country": `+country+`}`)
			w, err := ValidateWine(raw)
			require.NoError(t, err)
			assert.Equal(t, UnknownCountry, w.Country, "country input %s", country)
		}

		raw := decodeRaw(t, `{"id": 1, "points": 90, "title": "A wine"}`)
		w, err := ValidateWine(raw)
		require.NoError(t, err)
		assert.Equal(t, UnknownCountry, w.Country)
	})

	t.Run("vineyard key accepted when designation absent", func(t *testing.T) {
		raw := decodeRaw(t, `{"id": 3, "points": 85, "title": "T", "vineyard": "Clos"}`)
		w, err := ValidateWine(raw)
		require.NoError(t, err)
		assert.Equal(t, "Clos", w.Vineyard)
	})

	t.Run("absent optional keys read as empty", func(t *testing.T) {
		w, err := ValidateWine(decodeRaw(t, `{"id": 5, "points": 88, "title": "Bare"}`))
		require.NoError(t, err)
		withNulls, err := ValidateWine(decodeRaw(t, `{"id": 5, "points": 88, "title": "Bare",
			"description": null, "designation": null, "variety": null, "price": null}`))
		require.NoError(t, err)
		assert.Equal(t, withNulls, w)
		assert.Empty(t, w.Description)
		assert.Empty(t, w.Vineyard)
		assert.Equal(t, "Bare", w.ToVectorize)
	})

	t.Run("null price stays nil", func(t *testing.T) {
		raw := decodeRaw(t, `{"id": 4, "points": 85, "title": "T", "price": null}`)
		w, err := ValidateWine(raw)
		require.NoError(t, err)
		assert.Nil(t, w.Price)
	})

	t.Run("missing required fields", func(t *testing.T) {
		tests := []struct {
			name  string
			line  string
			field string
		}{
			{"no id", `{"points": 80, "title": "T"}`, "id"},
			{"no points", `{"id": 1, "title": "T"}`, "points"},
			{"null title", `{"id": 1, "points": 80, "title": null}`, "title"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ValidateWine(decodeRaw(t, tt.line))
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidWine)
				assert.ErrorIs(t, err, ErrMissingField)
				assert.Contains(t, err.Error(), tt.field)
			})
		}
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := ValidateWine(decodeRaw(t, `{"id": 1, "points": 80, "title": "   "}`))
		assert.ErrorIs(t, err, ErrInvalidWine)
		assert.ErrorIs(t, err, ErrEmptyTitle)
	})

	t.Run("nil record", func(t *testing.T) {
		_, err := ValidateWine(nil)
		assert.ErrorIs(t, err, ErrInvalidWine)
	})
}

func TestToVectorize(t *testing.T) {
	tests := []struct {
		name                        string
		variety, title, description string
		want                        string
	}{
		{"all parts", "Merlot", "Title", "Desc", "Merlot Title Desc"},
		{"no variety", "", "Title", "Desc", "Title Desc"},
		{"title only", "", "Title", "", "Title"},
		{"nothing", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToVectorize(tt.variety, tt.title, tt.description))
		})
	}
}

func TestValidateVector(t *testing.T) {
	assert.NoError(t, ValidateVector(make([]float32, VectorDims)))
	err := ValidateVector(make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestWineResult(t *testing.T) {
	price := 20.5
	w := Wine{ID: 9, Title: "T", Description: "D", Country: "Italy", Variety: "Nebbiolo", Price: &price, Points: 92, Winery: "W"}
	r := w.Result(0.5)
	assert.Equal(t, SearchResult{ID: 9, Title: "T", Description: "D", Country: "Italy", Variety: "Nebbiolo", Price: &price, Points: 92, Score: 0.5}, r)

	data, err := json.Marshal(w.Result(0))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "score")
	assert.NotContains(t, string(data), "winery")
}
