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
	"fmt"
	"strings"
)

// ValidateWine validates a raw dataset record and returns its normalized form.
//
// Validation rules:
//   - id, points and title must be present
//   - title must not be blank
//   - every other field may be absent or null; both read as empty
//
// Normalization:
//   - all string fields are whitespace-trimmed
//   - vineyard is read from "designation", falling back to "vineyard"
//   - a missing, empty or "null" country becomes UnknownCountry
//   - ToVectorize is derived from variety, title and description
func ValidateWine(raw *RawWine) (Wine, error) {
	if raw == nil {
		return Wine{}, fmt.Errorf("%w: record is nil", ErrInvalidWine)
	}
	if raw.ID == nil {
		return Wine{}, fmt.Errorf("%w: %w: id", ErrInvalidWine, ErrMissingField)
	}
	if raw.Points == nil {
		return Wine{}, fmt.Errorf("%w: id %d: %w: points", ErrInvalidWine, *raw.ID, ErrMissingField)
	}
	if raw.Title == nil {
		return Wine{}, fmt.Errorf("%w: id %d: %w: title", ErrInvalidWine, *raw.ID, ErrMissingField)
	}

	w := Wine{
		ID:                  *raw.ID,
		Points:              *raw.Points,
		Title:               clean(raw.Title),
		Description:         clean(raw.Description),
		Price:               raw.Price,
		Variety:             clean(raw.Variety),
		Winery:              clean(raw.Winery),
		Vineyard:            clean(raw.Designation),
		Country:             clean(raw.Country),
		Province:            clean(raw.Province),
		Region1:             clean(raw.Region1),
		Region2:             clean(raw.Region2),
		TasterName:          clean(raw.TasterName),
		TasterTwitterHandle: clean(raw.TasterTwitterHandle),
	}
	if w.Title == "" {
		return Wine{}, fmt.Errorf("%w: id %d: %w", ErrInvalidWine, w.ID, ErrEmptyTitle)
	}
	if w.Vineyard == "" {
		w.Vineyard = clean(raw.Vineyard)
	}
	if w.Country == "" || w.Country == "null" {
		w.Country = UnknownCountry
	}
	w.ToVectorize = ToVectorize(w.Variety, w.Title, w.Description)
	return w, nil
}

// ToVectorize joins the non-empty parts with single spaces. This is the text
// that gets embedded for a record.
func ToVectorize(variety, title, description string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{variety, title, description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// ValidateVector checks that v has exactly VectorDims components.
func ValidateVector(v []float32) error {
	if len(v) != VectorDims {
		return fmt.Errorf("%w: got %d, want %d", ErrInvalidVector, len(v), VectorDims)
	}
	return nil
}

func clean(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
