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


package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/poiesic/winesearch/search"
)

type detail struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("REST API for querying %s database of 130k wine reviews from the Wine Enthusiast magazine",
			s.backend.Name()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "backend", s.backend.Name(), "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"detail": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(kind search.Kind, param string, limit int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get(param))
		if query == "" {
			writeDetail(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("query parameter '%s' is required", param))
			return
		}

		results, err := s.searcher.Search(r.Context(), kind, query, limit)
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			writeDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		case err != nil:
			s.logger.Error("search failed", "kind", kind, "query", query, "err", err)
			writeDetail(w, http.StatusInternalServerError, "search backend error")
			return
		}

		if len(results) == 0 {
			writeDetail(w, http.StatusNotFound,
				fmt.Sprintf("No wine with the provided terms '%s' found in database - please try again", query))
			return
		}
		// Scores are internal ranking detail and are not part of the response.
		for i := range results {
			results[i].Score = 0
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
