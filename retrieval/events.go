package retrieval

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventSearch       observability.EventType = "retrieval.search"
	EventSearchFailed observability.EventType = "retrieval.failed"
)
