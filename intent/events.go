package intent

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventSummaryCheck   observability.EventType = "intent.summary_check"
	EventSummaryType    observability.EventType = "intent.summary_type"
	EventClassifyFailed observability.EventType = "intent.failed"
)
