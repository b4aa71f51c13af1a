// Package answer produces grounded answers from retrieved documents and the
// session's conversation history, recording each completed turn in the
// session.
package answer

import (
	"context"
	"strings"
	"time"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/prompts"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/session"
)

// ContextSeparator joins document contents into the prompt context.
const ContextSeparator = "\n\n"

// Generator answers questions for sessions held in a registry.
type Generator struct {
	agent    agent.Agent
	catalog  *prompts.Catalog
	sessions *session.Registry
	observer observability.Observer
}

// New creates a Generator.
func New(a agent.Agent, catalog *prompts.Catalog, sessions *session.Registry, observer observability.Observer) *Generator {
	return &Generator{
		agent:    a,
		catalog:  catalog,
		sessions: sessions,
		observer: observability.OrNoOp(observer),
	}
}

// Generate answers question using docs and the session history, then
// appends the question and answer to the session. It never fails: a
// rendering or model error becomes the catalog's error message and nothing
// is appended.
func (g *Generator) Generate(ctx context.Context, question, sessionID string, docs []retrieval.Document) string {
	started := time.Now()
	mem := g.sessions.Get(ctx, sessionID)

	answer, usage, err := g.answer(ctx, question, mem, docs)
	if err != nil {
		observability.Emit(ctx, g.observer, EventGenerateFailed, observability.LevelError, "answer", map[string]any{
			"session_id": mem.ID(),
			"error":      err.Error(),
		})
		return g.catalog.ErrorMessage(err)
	}

	mem.Append(ctx, protocol.Turn(question, answer)...)

	data := map[string]any{
		"session_id": mem.ID(),
		"documents":  len(docs),
		"duration":   time.Since(started),
	}
	if usage != nil {
		data["input_tokens"] = usage.InputTokens
		data["output_tokens"] = usage.OutputTokens
	}
	observability.Emit(ctx, g.observer, EventGenerate, observability.LevelVerbose, "answer", data)
	return answer
}

func (g *Generator) answer(ctx context.Context, question string, mem *session.Memory, docs []retrieval.Document) (string, *response.TokenUsage, error) {
	prompt, err := g.catalog.QA(prompts.QAInput{
		History:  mem.LoadSummaryAndRecent(),
		Question: question,
		Context:  JoinContext(docs),
	})
	if err != nil {
		return "", nil, err
	}

	resp, err := agent.Complete(ctx, g.agent, prompt)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(response.Normalize(resp)), resp.Usage, nil
}

// JoinContext concatenates document contents in order.
func JoinContext(docs []retrieval.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, ContextSeparator)
}
