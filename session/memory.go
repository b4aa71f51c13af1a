// Package session keeps per-conversation memory: the most recent turns
// verbatim plus a model-written summary of everything older.
package session

import (
	"context"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/observability"
)

// Summarizer condenses a role-labeled transcript into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// SummarizerFunc adapts a function to Summarizer.
type SummarizerFunc func(ctx context.Context, transcript string) (string, error)

// Summarize calls f.
func (f SummarizerFunc) Summarize(ctx context.Context, transcript string) (string, error) {
	return f(ctx, transcript)
}

// Memory is the history of a single session. It is safe for concurrent use;
// an Append and any compaction it triggers run under one lock.
type Memory struct {
	id             string
	maxRecentTurns int
	summarizer     Summarizer
	observer       observability.Observer

	mu       sync.Mutex
	messages []protocol.Message
	summary  string
}

// NewMemory creates an empty session memory. A nil summarizer disables
// summarization; old messages are still dropped.
func NewMemory(id string, cfg Config, summarizer Summarizer, observer observability.Observer) *Memory {
	turns := cfg.MaxRecentTurns
	if turns <= 0 {
		turns = DefaultConfig().MaxRecentTurns
	}
	return &Memory{
		id:             id,
		maxRecentTurns: turns,
		summarizer:     summarizer,
		observer:       observability.OrNoOp(observer),
	}
}

// ID returns the session identifier.
func (m *Memory) ID() string {
	return m.id
}

// Append adds messages in order, then compacts when the session holds more
// than 2*MaxRecentTurns messages. Compaction replaces the summary with one
// covering only the messages being dropped. A summarizer failure keeps the
// previous summary; the truncation happens either way.
func (m *Memory) Append(ctx context.Context, msgs ...protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = append(m.messages, msgs...)
	m.compact(ctx)
}

func (m *Memory) compact(ctx context.Context) {
	keep := m.maxRecentTurns * 2
	if len(m.messages) <= keep {
		return
	}

	cut := len(m.messages) - keep
	older := m.messages[:cut]
	retained := slices.Clone(m.messages[cut:])

	if m.summarizer != nil {
		summary, err := m.summarizer.Summarize(ctx, protocol.FormatTranscript(older))
		if err != nil {
			observability.Emit(ctx, m.observer, EventSummarizeFailed, observability.LevelWarning, "session", map[string]any{
				"session_id": m.id,
				"error":      err.Error(),
			})
		} else {
			m.summary = summary
			observability.Emit(ctx, m.observer, EventSessionCompact, observability.LevelInfo, "session", map[string]any{
				"session_id":     m.id,
				"summarized":     len(older),
				"summary_length": len([]rune(summary)),
			})
		}
	}

	m.messages = retained
}

// LoadSummaryAndRecent renders the session for a prompt: the summary, a
// blank line, then the retained messages as "Human: ..." / "AI: ..." lines.
// It has no side effects.
func (m *Memory) LoadSummaryAndRecent() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.summary + "\n\n" + protocol.FormatTranscript(m.messages)
}

// Messages returns a copy of the retained messages.
func (m *Memory) Messages() []protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.messages)
}

// Summary returns the current summary.
func (m *Memory) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.summary
}

// Clear drops both the messages and the summary.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.messages = nil
	m.summary = ""
}
