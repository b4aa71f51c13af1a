// Package mock provides a scripted Agent for tests.
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

// Reply is one scripted outcome.
type Reply struct {
	Response response.Response
	Err      error
}

// Text is a scripted plain-text reply.
func Text(s string) Reply {
	return Reply{Response: response.FromText(s)}
}

// Fail is a scripted error.
func Fail(err error) Reply {
	return Reply{Err: err}
}

// Agent replays scripted replies in order, then repeats the last one. When
// Respond is set it takes precedence over the script. Every call is
// recorded.
type Agent struct {
	AgentID   string
	AgentName string
	Respond   func(msgs []protocol.Message) Reply

	mu      sync.Mutex
	replies []Reply
	calls   [][]protocol.Message
}

// New creates a mock agent with the given script.
func New(replies ...Reply) *Agent {
	return &Agent{AgentID: "mock", AgentName: "mock/mock", replies: replies}
}

func (a *Agent) ID() string   { return a.AgentID }
func (a *Agent) Name() string { return a.AgentName }

func (a *Agent) Invoke(ctx context.Context, msgs []protocol.Message) (response.Response, error) {
	a.mu.Lock()
	a.calls = append(a.calls, slices.Clone(msgs))

	var reply Reply
	switch {
	case a.Respond != nil:
		a.mu.Unlock()
		reply = a.Respond(msgs)
	case len(a.replies) == 0:
		a.mu.Unlock()
	default:
		reply = a.replies[0]
		if len(a.replies) > 1 {
			a.replies = a.replies[1:]
		}
		a.mu.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return response.Response{}, err
	}
	return reply.Response, reply.Err
}

// Calls returns a copy of every conversation received.
func (a *Agent) Calls() [][]protocol.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.calls)
}

// Prompts returns the content of the last message of every call.
func (a *Agent) Prompts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]string, 0, len(a.calls))
	for _, msgs := range a.calls {
		if len(msgs) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, msgs[len(msgs)-1].Content)
	}
	return out
}
