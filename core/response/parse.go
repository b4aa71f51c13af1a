package response

import (
	"encoding/json"
	"fmt"
)

// TokenUsage reports token consumption when the backend provides it.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}

type generateBody struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// ParseGenerate parses an Ollama /api/generate body into a text Response.
func ParseGenerate(body []byte) (Response, error) {
	var parsed generateBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Response{}, fmt.Errorf("failed to parse generate response: %w", err)
	}
	resp := FromText(parsed.Response)
	if parsed.PromptEvalCount > 0 || parsed.EvalCount > 0 {
		resp.Usage = &TokenUsage{InputTokens: parsed.PromptEvalCount, OutputTokens: parsed.EvalCount}
	}
	return resp, nil
}

type messageBody struct {
	Message
	Usage *TokenUsage `json:"usage,omitempty"`
}

// ParseMessage parses an Anthropic /v1/messages body into a message Response.
func ParseMessage(body []byte) (Response, error) {
	var parsed messageBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Response{}, fmt.Errorf("failed to parse message response: %w", err)
	}
	msg := parsed.Message
	resp := FromMessage(&msg)
	resp.Usage = parsed.Usage
	return resp, nil
}
