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
	"fmt"
	"time"

	"github.com/poiesic/winesearch/core"
)

// WineScanner iterates over stored wines. The local backend implements it.
type WineScanner interface {
	ScanWines(ctx context.Context, fn func(core.EmbeddedWine) error) error
}

// Reembed replaces the vector of every wine yielded by source with a fresh
// embedding of its stored text, writes the wines back through the loader and
// rebuilds the indexes. Unlike Run, an embedding failure that survives the
// retries aborts the operation, since a partially re-embedded table mixes
// vectors from two models.
func (p *Pipeline) Reembed(ctx context.Context, source WineScanner) (*Report, error) {
	report := &Report{}
	total, err := p.loader.Count(ctx)
	if err != nil {
		return report, fmt.Errorf("counting records: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(p.progress, "No records found in database (0 records)\n")
		return report, nil
	}
	fmt.Fprintf(p.progress, "Starting reembedding of %d records (batch size: %d)\n", total, p.chunkSize)

	tracker := NewProgress(p.progress, total, p.chunkSize, "records")
	tracker.Start()

	start := time.Now()
	batch := make([]core.Wine, 0, p.chunkSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		embedded, err := p.embedChunk(ctx, batch)
		if err != nil {
			first, last := idRange(batch)
			return fmt.Errorf("embedding records %d-%d: %w", first, last, err)
		}
		report.Embedded += len(embedded)

		n, err := p.loader.AddWines(ctx, embedded...)
		report.Loaded += n
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		tracker.Add(len(embedded))
		batch = batch[:0]
		return nil
	}

	err = source.ScanWines(ctx, func(w core.EmbeddedWine) error {
		report.Validated++
		batch = append(batch, w.Wine)
		if len(batch) < p.chunkSize {
			return nil
		}
		return flush()
	})
	if err == nil {
		err = flush()
	}
	tracker.Finish()
	if err != nil {
		return report, err
	}
	report.record(StageLoad, time.Since(start))

	start = time.Now()
	if err := p.loader.BuildIndexes(ctx); err != nil {
		return report, fmt.Errorf("building indexes: %w", err)
	}
	report.record(StageIndex, time.Since(start))
	report.Print(p.progress)

	p.logger.Info("reembedding complete", "records", report.Loaded)
	return report, nil
}
