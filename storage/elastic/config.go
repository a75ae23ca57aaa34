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
	"errors"
	"log/slog"
	"time"
)

// Defaults match the connection settings used by the indexing scripts.
const (
	DefaultIndexAlias     = "wines"
	DefaultRequestTimeout = 300 * time.Second
	DefaultMaxRetries     = 3
	DefaultBulkWorkers    = 4
)

// Config holds connection settings for an Elasticsearch cluster.
type Config struct {
	// Addresses lists cluster node URLs, e.g. "http://localhost:9200".
	Addresses []string

	Username string
	Password string

	// IndexAlias is the alias all reads and writes go through. The concrete
	// index is named "<alias>-1".
	IndexAlias string

	// RequestTimeout bounds each request.
	RequestTimeout time.Duration

	// MaxRetries is the number of retries on 502/503/504 and on timeouts.
	MaxRetries int
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Addresses) == 0 {
		return errors.New("elasticsearch address is required")
	}
	if c.IndexAlias == "" {
		return errors.New("index alias is required")
	}
	if c.RequestTimeout < 0 {
		return errors.New("request timeout cannot be negative")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	return nil
}

func (c *Config) normalize() {
	if c.IndexAlias == "" {
		c.IndexAlias = DefaultIndexAlias
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

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

// WithBulkWorkers sets the number of concurrent bulk indexing workers.
func WithBulkWorkers(n int) Option {
	return func(r *Repository) error {
		if n <= 0 {
			return errors.New("bulk workers must be positive")
		}
		r.bulkWorkers = n
		return nil
	}
}
