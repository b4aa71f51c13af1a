package state

import (
	"errors"
	"fmt"
)

var (
	ErrNoNodes       = errors.New("graph has no nodes")
	ErrNoEntryPoint  = errors.New("entry point not set")
	ErrNoExitPoint   = errors.New("no exit points set")
	ErrCycle         = errors.New("graph contains a cycle")
	ErrDeadEnd       = errors.New("node has no outgoing edges and is not an exit point")
	ErrNoTransition  = errors.New("no valid transition")
	ErrMaxIterations = errors.New("max iterations exceeded")
)

// ExecutionError captures where a run failed.
//
//   - NodeName: node being executed (or routed from) when the run stopped
//   - RunID: identifier shared by every event of the run
//   - Path: nodes visited, in order, including NodeName
//   - Err: underlying error
type ExecutionError struct {
	NodeName string
	RunID    string
	Path     []string
	Err      error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed at node %s: %v", e.NodeName, e.Err)
}

// Unwrap enables errors.Is and errors.As on the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}
