package search

import (
	"time"

	"github.com/poiesic/winesearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(kind Kind, query string)
	AfterQueryEncoding(vector []float32)
	Finish(results []core.SearchResult, elapsed time.Duration, err error)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Kind, _ string)                                 {}
func (n *noopMonitor) AfterQueryEncoding(_ []float32)                         {}
func (n *noopMonitor) Finish(_ []core.SearchResult, _ time.Duration, _ error) {}
