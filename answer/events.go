package answer

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventGenerate       observability.EventType = "answer.generate"
	EventGenerateFailed observability.EventType = "answer.failed"
)
