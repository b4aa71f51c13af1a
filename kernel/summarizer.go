package kernel

import (
	"context"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/prompts"
	"github.com/tailored-agentic-units/docchat/session"
)

// promptSummarizer folds transcripts into a summary with the catalog's
// summarize prompt.
type promptSummarizer struct {
	agent   agent.Agent
	catalog *prompts.Catalog
}

var _ session.Summarizer = promptSummarizer{}

func (s promptSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	prompt, err := s.catalog.Summarize(transcript)
	if err != nil {
		return "", err
	}
	return agent.Prompt(ctx, s.agent, prompt)
}
