package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/observability"
)

// Router selects the search strategy for a question.
type Router struct {
	retriever Retriever
	cfg       Config
	observer  observability.Observer
}

// NewRouter validates cfg and creates a Router.
func NewRouter(r Retriever, cfg Config, observer observability.Observer) (*Router, error) {
	if r == nil {
		return nil, fmt.Errorf("retrieval: retriever is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{retriever: r, cfg: cfg, observer: observability.OrNoOp(observer)}, nil
}

// Route runs a filtered search for the four summary categories and an MMR
// search otherwise.
func (r *Router) Route(ctx context.Context, question string, summaryType intent.SummaryType) ([]Document, error) {
	if summaryType.Valid() {
		return r.Filtered(ctx, question, summaryType)
	}
	return r.General(ctx, question)
}

// Filtered returns the k most similar documents whose summary_type metadata
// equals summaryType.
func (r *Router) Filtered(ctx context.Context, question string, summaryType intent.SummaryType) ([]Document, error) {
	filter := Filter{MetadataSummaryType: string(summaryType)}
	return r.observe(ctx, "similarity", string(summaryType), func() ([]Document, error) {
		return r.retriever.SimilaritySearch(ctx, question, r.cfg.K, filter)
	})
}

// General returns k documents chosen by maximal marginal relevance from
// the fetch_k best candidates.
func (r *Router) General(ctx context.Context, question string) ([]Document, error) {
	return r.observe(ctx, "mmr", "", func() ([]Document, error) {
		return r.retriever.MMRSearch(ctx, question, r.cfg.K, r.cfg.FetchK, r.cfg.LambdaMult)
	})
}

func (r *Router) observe(ctx context.Context, method, summaryType string, search func() ([]Document, error)) ([]Document, error) {
	started := time.Now()
	docs, err := search()
	if err != nil {
		observability.Emit(ctx, r.observer, EventSearchFailed, observability.LevelError, "retrieval", map[string]any{
			"method":       method,
			"summary_type": summaryType,
			"error":        err.Error(),
		})
		return nil, fmt.Errorf("%w: %s: %w", ErrSearchFailed, method, err)
	}

	observability.Emit(ctx, r.observer, EventSearch, observability.LevelVerbose, "retrieval", map[string]any{
		"method":       method,
		"summary_type": summaryType,
		"results":      len(docs),
		"duration":     time.Since(started),
	})
	return docs, nil
}
