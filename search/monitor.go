package search

import (
	"github.com/poiesic/docingest/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int, cached bool)
	AfterCandidateScan(candidates int)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                    {}
func (n *noopMonitor) AfterQueryEmbedding(_ int, _ bool) {}
func (n *noopMonitor) AfterCandidateScan(_ int)          {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)     {}
