// Package agent wraps an LLM backend behind a single Invoke call and keeps
// named agents (e.g. a cheaper model for classification) in a registry.
package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/docchat/agent/providers"
	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

// Agent answers a conversation with one model response.
type Agent interface {
	// ID is unique per instance.
	ID() string
	// Name is "<provider>/<model>".
	Name() string
	Invoke(ctx context.Context, msgs []protocol.Message) (response.Response, error)
}

type agent struct {
	id       string
	model    string
	provider providers.Provider
}

// New creates an agent from configuration.
func New(cfg *Config) (Agent, error) {
	provider, err := providers.Create(cfg.Provider.Name, cfg.options())
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	return FromProvider(cfg.Model.Name, provider), nil
}

// FromProvider wraps an already-built provider.
func FromProvider(model string, provider providers.Provider) Agent {
	return &agent{
		id:       uuid.Must(uuid.NewV7()).String(),
		model:    model,
		provider: provider,
	}
}

func (a *agent) ID() string {
	return a.id
}

func (a *agent) Name() string {
	return a.provider.Name() + "/" + a.model
}

func (a *agent) Invoke(ctx context.Context, msgs []protocol.Message) (response.Response, error) {
	resp, err := a.provider.Complete(ctx, msgs)
	if err != nil {
		return response.Response{}, fmt.Errorf("%s: %w", a.Name(), err)
	}
	return resp, nil
}

// Prompt sends a single user message and returns the normalized text.
func Prompt(ctx context.Context, a Agent, prompt string) (string, error) {
	resp, err := Complete(ctx, a, prompt)
	if err != nil {
		return "", err
	}
	return response.Normalize(resp), nil
}

// Complete sends prompt as a single user message and returns the raw
// response, including any token usage the backend reported.
func Complete(ctx context.Context, a Agent, prompt string) (response.Response, error) {
	return a.Invoke(ctx, []protocol.Message{protocol.UserMessage(prompt)})
}
