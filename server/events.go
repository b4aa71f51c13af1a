package server

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventRequest observability.EventType = "server.request"
	EventStart   observability.EventType = "server.start"
	EventStop    observability.EventType = "server.stop"
)
