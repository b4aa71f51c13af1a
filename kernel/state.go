package kernel

import (
	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/retrieval"
)

// QueryState flows through the query graph. Nodes receive it by value and
// return an updated copy; Documents is replaced, never appended to in place.
type QueryState struct {
	Question         string               `json:"question"`
	SessionID        string               `json:"session_id"`
	IsSummaryRequest bool                 `json:"is_summary_request"`
	SummaryType      intent.SummaryType   `json:"summary_type"`
	Documents        []retrieval.Document `json:"documents"`
	Answer           string               `json:"answer"`
}

// NewQueryState starts a query. SummaryType begins as none so a run that
// skips classification still routes to the general search.
func NewQueryState(question, sessionID string) QueryState {
	return QueryState{
		Question:    question,
		SessionID:   sessionID,
		SummaryType: intent.None,
	}
}
