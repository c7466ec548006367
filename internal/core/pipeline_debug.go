// internal/core/pipeline_debug.go
// Pipeline-specific debugging and per-frame operation tracking
package core

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// maxTrackedOperations bounds the in-memory operation history
const maxTrackedOperations = 256

// PipelineOperation tracks a single stage execution on one frame
type PipelineOperation struct {
	Timestamp time.Time
	Operation string // stage name, "display"
	Seq       uint64
	Success   bool
	Duration  time.Duration
	Boxes     int
	Error     string
}

// PipelineDebugger handles all pipeline-related debugging
type PipelineDebugger struct {
	mu      sync.Mutex
	logger  *logrus.Entry
	enabled bool

	operations []PipelineOperation
	states     []State
}

// NewPipelineDebugger creates a debugger; when disabled it only tracks
// state transitions.
func NewPipelineDebugger(logger *logrus.Entry, enabled bool) *PipelineDebugger {
	return &PipelineDebugger{
		logger:     logger,
		enabled:    enabled,
		operations: make([]PipelineOperation, 0),
	}
}

// LogOperation records one stage run on a frame
func (pd *PipelineDebugger) LogOperation(operation string, seq uint64, boxes int, duration time.Duration, err error) {
	if !pd.enabled {
		return
	}

	op := PipelineOperation{
		Timestamp: time.Now(),
		Operation: operation,
		Seq:       seq,
		Success:   err == nil,
		Duration:  duration,
		Boxes:     boxes,
	}
	if err != nil {
		op.Error = err.Error()
	}

	pd.mu.Lock()
	pd.operations = append(pd.operations, op)
	if len(pd.operations) > maxTrackedOperations {
		pd.operations = pd.operations[len(pd.operations)-maxTrackedOperations:]
	}
	pd.mu.Unlock()

	entry := pd.logger.WithFields(logrus.Fields{
		"operation":   operation,
		"seq":         seq,
		"boxes":       boxes,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("PIPELINE Debug")
		return
	}
	entry.Debug("PIPELINE Debug")
}

// LogStateChange records a lifecycle transition
func (pd *PipelineDebugger) LogStateChange(from, to State) {
	pd.mu.Lock()
	pd.states = append(pd.states, to)
	pd.mu.Unlock()

	pd.logger.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   to.String(),
	}).Info("PIPELINE: State changed")
}

// Operations returns a copy of the tracked operations
func (pd *PipelineDebugger) Operations() []PipelineOperation {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	ops := make([]PipelineOperation, len(pd.operations))
	copy(ops, pd.operations)
	return ops
}

// States returns every state entered, in order
func (pd *PipelineDebugger) States() []State {
	pd.mu.Lock()
	defer pd.mu.Unlock()
	states := make([]State, len(pd.states))
	copy(states, pd.states)
	return states
}
