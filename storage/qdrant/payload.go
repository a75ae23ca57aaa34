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


package qdrant

import (
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/poiesic/winesearch/core"
)

// Payload keys.
const (
	keyToVectorize = "to_vectorize"
	keyPoints      = "points"
)

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func integerValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}

func nullValue() *pb.Value {
	return &pb.Value{Kind: &pb.Value_NullValue{NullValue: pb.NullValue_NULL_VALUE}}
}

// toPayload converts a wine into a point payload. to_vectorize is kept so the
// full-text payload index has something to match against.
func toPayload(w *core.Wine) map[string]*pb.Value {
	price := nullValue()
	if w.Price != nil {
		price = &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: *w.Price}}
	}
	return map[string]*pb.Value{
		"id":                    integerValue(w.ID),
		keyPoints:               integerValue(int64(w.Points)),
		"title":                 stringValue(w.Title),
		"description":           stringValue(w.Description),
		"price":                 price,
		"variety":               stringValue(w.Variety),
		"winery":                stringValue(w.Winery),
		"vineyard":              stringValue(w.Vineyard),
		"country":               stringValue(w.Country),
		"province":              stringValue(w.Province),
		"region_1":              stringValue(w.Region1),
		"region_2":              stringValue(w.Region2),
		"taster_name":           stringValue(w.TasterName),
		"taster_twitter_handle": stringValue(w.TasterTwitterHandle),
		keyToVectorize:          stringValue(w.ToVectorize),
	}
}

// fromPayload projects a point payload into a search result.
func fromPayload(id uint64, payload map[string]*pb.Value, score float32) core.SearchResult {
	res := core.SearchResult{
		ID:          int64(id),
		Title:       payload["title"].GetStringValue(),
		Description: payload["description"].GetStringValue(),
		Country:     payload["country"].GetStringValue(),
		Variety:     payload["variety"].GetStringValue(),
		Points:      int(payload[keyPoints].GetIntegerValue()),
		Score:       score,
	}
	switch v := payload["price"].GetKind().(type) {
	case *pb.Value_DoubleValue:
		price := v.DoubleValue
		res.Price = &price
	case *pb.Value_IntegerValue:
		price := float64(v.IntegerValue)
		res.Price = &price
	}
	return res
}

// textMatch is a full-text condition on a payload field.
func textMatch(key, text string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Text{Text: text},
				},
			},
		},
	}
}
