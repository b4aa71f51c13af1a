package ingest

import "github.com/tailored-agentic-units/docchat/observability"

const (
	EventIngestStart    observability.EventType = "ingest.start"
	EventIngestDocument observability.EventType = "ingest.document"
	EventIngestSkipped  observability.EventType = "ingest.skipped"
	EventIngestRemove   observability.EventType = "ingest.remove"
	EventIngestComplete observability.EventType = "ingest.complete"
)
