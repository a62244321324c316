package inject

import "sync"

// PipelineSelector is an injected camera pipeline selector. Without an injected func it records
// every selection.
type PipelineSelector struct {
	mu         sync.Mutex
	selections []int

	SetPipelineFunc func(index int)
}

// SetPipeline calls the injected SetPipeline or records the index.
func (ps *PipelineSelector) SetPipeline(index int) {
	if ps.SetPipelineFunc != nil {
		ps.SetPipelineFunc(index)
		return
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.selections = append(ps.selections, index)
}

// Selections returns every recorded index, oldest first.
func (ps *PipelineSelector) Selections() []int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return append([]int(nil), ps.selections...)
}
