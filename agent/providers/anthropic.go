package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

const (
	defaultAnthropicURL = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
	defaultMaxTokens    = 1024
)

// Anthropic calls the Messages API, which answers with structured content
// blocks.
type Anthropic struct {
	opts   Options
	client *http.Client
}

// NewAnthropic creates an Anthropic provider. An API key is required.
func NewAnthropic(opts Options) (Provider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultAnthropicURL
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Anthropic{opts: opts, client: newHTTPClient(opts.Timeout)}, nil
}

func (a *Anthropic) Name() string {
	return "anthropic"
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

func (a *Anthropic) Complete(ctx context.Context, msgs []protocol.Message) (response.Response, error) {
	system, rest := protocol.SplitSystem(msgs)
	if len(rest) == 0 {
		return response.Response{}, errors.New("anthropic: at least one non-system message is required")
	}

	req := anthropicRequest{
		Model:       a.opts.Model,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
		System:      system,
		Messages:    make([]anthropicMessage, 0, len(rest)),
	}
	for _, msg := range rest {
		req.Messages = append(req.Messages, anthropicMessage{Role: string(msg.Role), Content: msg.Content})
	}

	headers := map[string]string{
		"x-api-key":         a.opts.APIKey,
		"anthropic-version": anthropicVersion,
	}

	body, err := postJSON(ctx, a.client, a.opts.BaseURL+"/v1/messages", headers, req)
	if err != nil {
		return response.Response{}, err
	}
	return response.ParseMessage(body)
}
