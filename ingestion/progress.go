package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress prints a single carriage-return status line for a counted,
// long-running operation such as an index load or a benchmark run.
type Progress struct {
	w     io.Writer
	unit  string
	total int
	every int

	mu      sync.Mutex
	done    int
	skipped int
	printed int
	start   time.Time
	running bool
}

// NewProgress creates a tracker for total items of the given unit that
// redraws every `every` items. A nil writer discards output.
func NewProgress(w io.Writer, total, every int, unit string) *Progress {
	if w == nil {
		w = io.Discard
	}
	if unit == "" {
		unit = "records"
	}
	return &Progress{
		w:     w,
		unit:  unit,
		total: total,
		every: max(every, 1),
	}
}

// Start resets the counters and the clock.
func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = time.Now()
	p.running = true
	p.done, p.skipped, p.printed = 0, 0, 0
}

// Add counts n completed items.
func (p *Progress) Add(n int) {
	p.advance(n, false)
}

// Skip counts n items that were given up on. They move the line forward but
// are shown separately.
func (p *Progress) Skip(n int) {
	p.advance(n, true)
}

func (p *Progress) advance(n int, skipped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	n = min(n, p.total-p.done-p.skipped)
	if skipped {
		p.skipped += n
	} else {
		p.done += n
	}
	if pos := p.done + p.skipped; pos-p.printed >= p.every {
		p.draw()
		p.printed = pos
	}
}

// Done returns the number of completed items.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Finish draws the final line and ends it with a newline.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.draw()
	fmt.Fprintln(p.w)
	p.running = false
}

// Elapsed returns the time since Start.
func (p *Progress) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		return 0
	}
	return time.Since(p.start)
}

// draw writes the status line. Caller holds p.mu.
func (p *Progress) draw() {
	var rate, pct float64
	if secs := time.Since(p.start).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	if p.total > 0 {
		pct = float64(p.done+p.skipped) / float64(p.total) * 100
	}
	fmt.Fprintf(p.w, "\rProgress: %d/%d (%.1f%%) - %.1f %s/s", p.done+p.skipped, p.total, pct, rate, p.unit)
	if p.skipped > 0 {
		fmt.Fprintf(p.w, ", %d skipped", p.skipped)
	}
}
