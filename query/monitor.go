package query

import "github.com/poiesic/docquery/core"

// QueryMonitor provides hooks to observe the question answering process.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(question string)
	AfterQueryEmbedding(providerID string)
	AfterRetrieval(matches []*core.ChunkMatch)
	AfterContextAssembly(prompt string)
	Finish(answer *Answer)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                        {}
func (n *noopMonitor) AfterQueryEmbedding(_ string)          {}
func (n *noopMonitor) AfterRetrieval(_ []*core.ChunkMatch)   {}
func (n *noopMonitor) AfterContextAssembly(_ string)         {}
func (n *noopMonitor) Finish(_ *Answer)                      {}
