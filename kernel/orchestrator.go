package kernel

import (
	"context"
	"fmt"
	"time"

	"github.com/tailored-agentic-units/docchat/answer"
	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/orchestrate/state"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/session"
)

// Query graph node names.
const (
	NodeClassifySummary = "classify_summary"
	NodeClassifyType    = "classify_type"
	NodeSearchSummary   = "search_summary"
	NodeSearchGeneral   = "search_general"
	NodeGenerate        = "generate"
)

// Orchestrator answers questions with a compiled query graph. It owns the
// session registry of every conversation it has seen. Safe for concurrent
// use; queries on the same session serialize on that session's memory.
type Orchestrator struct {
	runnable *state.Runnable[QueryState]
	sessions *session.Registry
	observer observability.Observer
}

// Build wires the classifier, router and generator around retriever and
// compiles the query graph.
func (k *Kernel) Build(retriever retrieval.Retriever) (*Orchestrator, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}

	classifierAgent, err := k.roleAgent(AgentClassifier)
	if err != nil {
		return nil, err
	}
	summarizerAgent, err := k.roleAgent(AgentSummarizer)
	if err != nil {
		return nil, err
	}
	answerAgent, err := k.roleAgent(AgentAnswer)
	if err != nil {
		return nil, err
	}

	router, err := retrieval.NewRouter(retriever, k.cfg.Retrieval, k.observer)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	sessions := session.NewRegistry(
		k.cfg.Session,
		promptSummarizer{agent: summarizerAgent, catalog: k.catalog},
		k.observer,
	)
	classifier := intent.New(classifierAgent, k.catalog, k.cfg.Intent, k.observer)
	generator := answer.New(answerAgent, k.catalog, sessions, k.observer)

	runnable, err := buildGraph(k.cfg, k.observer, classifier, router, generator)
	if err != nil {
		return nil, fmt.Errorf("failed to build query graph: %w", err)
	}

	return &Orchestrator{
		runnable: runnable,
		sessions: sessions,
		observer: k.observer,
	}, nil
}

func buildGraph(cfg Config, observer observability.Observer, classifier *intent.Classifier, router *retrieval.Router, generator *answer.Generator) (*state.Runnable[QueryState], error) {
	g := state.NewGraphWithObserver[QueryState](cfg.Graph, observer)

	nodes := []struct {
		name string
		fn   state.NodeFunc[QueryState]
	}{
		{NodeClassifySummary, func(ctx context.Context, s QueryState) (QueryState, error) {
			s.IsSummaryRequest = classifier.IsSummaryRequest(ctx, s.Question)
			return s, nil
		}},
		{NodeClassifyType, func(ctx context.Context, s QueryState) (QueryState, error) {
			s.SummaryType = classifier.SummaryType(ctx, s.Question)
			return s, nil
		}},
		{NodeSearchSummary, func(ctx context.Context, s QueryState) (QueryState, error) {
			docs, err := router.Filtered(ctx, s.Question, s.SummaryType)
			if err != nil {
				return s, err
			}
			s.Documents = docs
			return s, nil
		}},
		{NodeSearchGeneral, func(ctx context.Context, s QueryState) (QueryState, error) {
			docs, err := router.General(ctx, s.Question)
			if err != nil {
				return s, err
			}
			s.Documents = docs
			return s, nil
		}},
		{NodeGenerate, func(ctx context.Context, s QueryState) (QueryState, error) {
			s.Answer = generator.Generate(ctx, s.Question, s.SessionID, s.Documents)
			return s, nil
		}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n.name, n.fn); err != nil {
			return nil, err
		}
	}

	var (
		isSummary state.Predicate[QueryState] = func(s QueryState) bool { return s.IsSummaryRequest }
		knownType state.Predicate[QueryState] = func(s QueryState) bool { return s.SummaryType.Valid() }
	)

	edges := []struct {
		from, to, name string
		predicate      state.Predicate[QueryState]
	}{
		{NodeClassifySummary, NodeClassifyType, "summary", isSummary},
		{NodeClassifySummary, NodeSearchGeneral, "general", state.Not(isSummary)},
		{NodeClassifyType, NodeSearchSummary, "known_type", knownType},
		{NodeClassifyType, NodeSearchGeneral, "unknown_type", state.Not(knownType)},
		{NodeSearchSummary, NodeGenerate, "", nil},
		{NodeSearchGeneral, NodeGenerate, "", nil},
	}
	for _, e := range edges {
		if err := g.AddNamedEdge(e.from, e.to, e.name, e.predicate); err != nil {
			return nil, err
		}
	}

	if err := g.SetEntryPoint(NodeClassifySummary); err != nil {
		return nil, err
	}
	if err := g.SetExitPoint(NodeGenerate); err != nil {
		return nil, err
	}

	return g.Compile()
}

// Query runs the graph and returns the final state. An empty sessionID uses
// the default session. The only errors are retrieval failures (matching
// retrieval.ErrSearchFailed) and context cancellation, both wrapped in a
// *state.ExecutionError.
func (o *Orchestrator) Query(ctx context.Context, question, sessionID string) (QueryState, error) {
	if sessionID == "" {
		sessionID = session.DefaultID
	}
	started := time.Now()

	observability.Emit(ctx, o.observer, EventQueryStart, observability.LevelInfo, "kernel", map[string]any{
		"session_id":      sessionID,
		"question_length": len([]rune(question)),
	})

	final, err := o.runnable.Execute(ctx, NewQueryState(question, sessionID))
	if err != nil {
		observability.Emit(ctx, o.observer, EventQueryFailed, observability.LevelError, "kernel", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return final, err
	}

	observability.Emit(ctx, o.observer, EventQueryComplete, observability.LevelInfo, "kernel", map[string]any{
		"session_id":   sessionID,
		"summary_type": string(final.SummaryType),
		"documents":    len(final.Documents),
		"duration":     time.Since(started),
	})
	return final, nil
}

// Run answers question in the session and returns the answer text. Like
// Query it fails only when retrieval fails or ctx is cancelled before the
// answer is generated; classifier, summarizer and model failures still
// produce an answer.
func (o *Orchestrator) Run(ctx context.Context, question, sessionID string) (string, error) {
	final, err := o.Query(ctx, question, sessionID)
	if err != nil {
		return "", err
	}
	return final.Answer, nil
}

// ResetMemory clears one session, or every session when sessionID is
// session.All. An empty sessionID resets the default session; unknown
// sessions are ignored.
func (o *Orchestrator) ResetMemory(ctx context.Context, sessionID string) {
	if sessionID == "" {
		sessionID = session.DefaultID
	}
	o.sessions.Reset(ctx, sessionID)
}

// Sessions returns the orchestrator's session registry.
func (o *Orchestrator) Sessions() *session.Registry {
	return o.sessions
}
