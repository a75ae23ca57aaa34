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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/winesearch/core"
	"github.com/poiesic/winesearch/storage"
)

const (
	// DefaultWorkers is the number of chunks embedded concurrently.
	DefaultWorkers = 4

	// DefaultChunkSize is the number of records per embedding and load batch.
	DefaultChunkSize = 1000

	// DefaultMaxRetries is the number of embedding attempts per chunk.
	DefaultMaxRetries = 1

	// DefaultRetryDelay is the base backoff between embedding attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// BatchEncoder embeds record texts. *ai.Encoder satisfies it.
type BatchEncoder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Pipeline validates, embeds and bulk-loads wine records.
type Pipeline struct {
	loader     storage.Loader
	encoder    BatchEncoder
	pool       *ants.Pool
	workers    int
	chunkSize  int
	maxRetries int
	retryDelay time.Duration
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithWorkers sets the number of chunks embedded concurrently.
// Default is DefaultWorkers.
func WithWorkers(n int) Option {
	return func(p *Pipeline) error {
		p.workers = max(n, 1)
		return nil
	}
}

// WithChunkSize sets the batch size. Default is DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", n)
		}
		p.chunkSize = n
		return nil
	}
}

// WithMaxRetries sets the number of embedding attempts per chunk.
// Default is DefaultMaxRetries, meaning a failed chunk is not retried.
func WithMaxRetries(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base backoff between embedding attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Pipeline) error {
		p.retryDelay = d
		return nil
	}
}

// WithProgress sets where the progress line and timer lines are written.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		if w == nil {
			w = io.Discard
		}
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(loader storage.Loader, encoder BatchEncoder, opts ...Option) (*Pipeline, error) {
	if loader == nil {
		return nil, ErrLoaderRequired
	}
	if encoder == nil {
		return nil, ErrEncoderRequired
	}

	p := &Pipeline{
		loader:     loader,
		encoder:    encoder,
		workers:    DefaultWorkers,
		chunkSize:  DefaultChunkSize,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		progress:   io.Discard,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// batchResult is the outcome of embedding one chunk.
type batchResult struct {
	index int
	wines []core.EmbeddedWine
	err   error
}

// Run indexes raws into the loader and reports what happened.
// The loader is prepared before the first chunk is loaded.
func (p *Pipeline) Run(ctx context.Context, raws []core.RawWine) (*Report, error) {
	report := &Report{}

	start := time.Now()
	wines, err := validate(raws)
	if err != nil {
		return report, err
	}
	report.Validated = len(wines)
	report.record(StageValidate, time.Since(start))

	if err := p.loader.Prepare(ctx); err != nil {
		return report, fmt.Errorf("preparing backend: %w", err)
	}

	start = time.Now()
	if err := p.embedAndLoad(ctx, wines, report); err != nil {
		return report, err
	}
	report.record(StageLoad, time.Since(start))

	start = time.Now()
	if err := p.loader.BuildIndexes(ctx); err != nil {
		return report, fmt.Errorf("building indexes: %w", err)
	}
	report.record(StageIndex, time.Since(start))
	report.Print(p.progress)

	p.logger.Info("ingestion complete",
		"validated", report.Validated,
		"embedded", report.Embedded,
		"loaded", report.Loaded,
		"droppedBatches", report.DroppedBatches)
	return report, nil
}

func validate(raws []core.RawWine) ([]core.Wine, error) {
	wines := make([]core.Wine, 0, len(raws))
	for i := range raws {
		w, err := core.ValidateWine(&raws[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		wines = append(wines, w)
	}
	return wines, nil
}

// embedAndLoad embeds chunks on the pool and loads them in completion order.
func (p *Pipeline) embedAndLoad(ctx context.Context, wines []core.Wine, report *Report) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := chunk(wines, p.chunkSize)
	results := make(chan batchResult, len(chunks))

	// submitErr is written before results is closed, so it is safe to read
	// once the results loop below has drained.
	var submitErr error
	go func() {
		var wg sync.WaitGroup
		defer close(results)
		defer wg.Wait()
		for i, c := range chunks {
			wg.Add(1)
			err := p.pool.Submit(func() {
				defer wg.Done()
				embedded, err := p.embedChunk(ctx, c)
				results <- batchResult{index: i, wines: embedded, err: err}
			})
			if err != nil {
				wg.Done()
				submitErr = fmt.Errorf("submitting batch %d: %w", i, err)
				cancel()
				return
			}
		}
	}()

	tracker := NewProgress(p.progress, len(wines), p.chunkSize, "records")
	tracker.Start()
	defer tracker.Finish()

	var loadErr error
	for res := range results {
		if loadErr != nil {
			continue
		}
		if res.err != nil {
			if ctx.Err() != nil {
				continue
			}
			first, last := idRange(chunks[res.index])
			p.logger.Error("dropping batch after embedding failure",
				"batch", res.index, "firstID", first, "lastID", last, "error", res.err)
			report.DroppedBatches++
			tracker.Skip(len(chunks[res.index]))
			continue
		}
		report.Embedded += len(res.wines)

		n, err := p.loader.AddWines(ctx, res.wines...)
		report.Loaded += n
		if err != nil {
			loadErr = fmt.Errorf("%w: batch %d: %w", ErrLoadFailed, res.index, err)
			cancel()
			continue
		}
		tracker.Add(len(res.wines))
	}

	return errors.Join(submitErr, loadErr, contextErr(ctx, submitErr, loadErr))
}

// contextErr surfaces a caller cancellation that was not caused by the
// pipeline cancelling itself.
func contextErr(ctx context.Context, errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return nil
		}
	}
	return context.Cause(ctx)
}

func (p *Pipeline) embedChunk(ctx context.Context, wines []core.Wine) ([]core.EmbeddedWine, error) {
	texts := make([]string, len(wines))
	for i := range wines {
		texts[i] = wines[i].ToVectorize
	}

	backoff := Backoff{
		Attempts:  p.maxRetries,
		BaseDelay: p.retryDelay,
		Logger:    p.logger.With("first_id", wines[0].ID),
	}
	var vectors [][]float32
	err := backoff.Do(ctx, func(int) error {
		var err error
		vectors, err = p.encoder.EncodeBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}

	embedded := make([]core.EmbeddedWine, len(wines))
	for i := range wines {
		embedded[i] = core.EmbeddedWine{Wine: wines[i], Vector: vectors[i]}
	}
	return embedded, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func chunk(wines []core.Wine, size int) [][]core.Wine {
	chunks := make([][]core.Wine, 0, (len(wines)+size-1)/size)
	for start := 0; start < len(wines); start += size {
		end := min(start+size, len(wines))
		chunks = append(chunks, wines[start:end])
	}
	return chunks
}

func idRange(wines []core.Wine) (int64, int64) {
	if len(wines) == 0 {
		return 0, 0
	}
	return wines[0].ID, wines[len(wines)-1].ID
}
