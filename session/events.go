package session

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventSessionCreate   observability.EventType = "session.create"
	EventSessionCompact  observability.EventType = "session.compact"
	EventSummarizeFailed observability.EventType = "session.summarize.failed"
	EventSessionReset    observability.EventType = "session.reset"
)
