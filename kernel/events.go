package kernel

import "github.com/tailored-agentic-units/docchat/observability"

// Orchestrator event types emitted around each query.
const (
	EventQueryStart    observability.EventType = "kernel.query.start"
	EventQueryComplete observability.EventType = "kernel.query.complete"
	EventQueryFailed   observability.EventType = "kernel.query.failed"
)
