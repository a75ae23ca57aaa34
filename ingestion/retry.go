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


package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// Backoff retries an operation, doubling the delay after every failed attempt.
type Backoff struct {
	// Attempts is the total number of tries, including the first. Must be > 0.
	Attempts int
	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration
	// Logger receives one debug line per failed attempt. Nil means slog.Default().
	Logger *slog.Logger
}

// delay returns the wait after the given failed attempt (1-based).
func (b Backoff) delay(attempt int) time.Duration {
	return b.BaseDelay << (attempt - 1)
}

// Do calls op until it succeeds, the attempts run out or ctx is done. op
// receives the 1-based attempt number. When every attempt fails the last
// error is returned.
func (b Backoff) Do(ctx context.Context, op func(attempt int) error) error {
	if b.Attempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = op(attempt); err == nil {
			if attempt > 1 {
				logger.Debug("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == b.Attempts {
			return err
		}

		wait := b.delay(attempt)
		logger.Debug("attempt failed, backing off", "attempt", attempt, "of", b.Attempts, "wait", wait, "err", err)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
