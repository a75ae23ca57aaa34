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


package local

import (
	"errors"
	"log/slog"
)

// Option configures a Repository.
type Option func(*Repository) error

// WithLogger sets the logger for the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTable sets the table name. The table lives in a subdirectory of the
// database path with the same name.
func WithTable(name string) Option {
	return func(r *Repository) error {
		if name == "" {
			return errors.New("table name cannot be empty")
		}
		r.table = name
		return nil
	}
}

// WithReset makes Prepare discard any existing table and index.
func WithReset(reset bool) Option {
	return func(r *Repository) error {
		r.reset = reset
		return nil
	}
}

// WithIndexBatchSize sets how many documents are written per bleve batch
// while building the full-text index.
func WithIndexBatchSize(n int) Option {
	return func(r *Repository) error {
		if n <= 0 {
			return errors.New("index batch size must be positive")
		}
		r.indexBatchSize = n
		return nil
	}
}
