package providers

import (
	"context"
	"net/http"
	"strings"

	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama calls the /api/generate completion endpoint, which answers with a
// bare string.
type Ollama struct {
	opts   Options
	client *http.Client
}

// NewOllama creates an Ollama provider. An empty BaseURL means the local
// default daemon.
func NewOllama(opts Options) (Provider, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultOllamaURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Ollama{opts: opts, client: newHTTPClient(opts.Timeout)}, nil
}

func (o *Ollama) Name() string {
	return "ollama"
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

func (o *Ollama) Complete(ctx context.Context, msgs []protocol.Message) (response.Response, error) {
	system, rest := protocol.SplitSystem(msgs)

	req := ollamaRequest{
		Model:   o.opts.Model,
		Prompt:  completionPrompt(rest),
		System:  system,
		Options: map[string]any{"temperature": o.opts.Temperature},
	}
	if o.opts.MaxTokens > 0 {
		req.Options["num_predict"] = o.opts.MaxTokens
	}

	body, err := postJSON(ctx, o.client, o.opts.BaseURL+"/api/generate", nil, req)
	if err != nil {
		return response.Response{}, err
	}
	return response.ParseGenerate(body)
}

// completionPrompt flattens a conversation for completion-style endpoints:
// a single message is sent as-is, longer exchanges as a labeled transcript.
func completionPrompt(msgs []protocol.Message) string {
	if len(msgs) == 1 {
		return msgs[0].Content
	}
	return protocol.FormatTranscript(msgs)
}
