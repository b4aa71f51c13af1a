package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/tailored-agentic-units/docchat/agent/providers"
	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

func TestNames(t *testing.T) {
	names := providers.Names()
	for _, want := range []string{"anthropic", "gemini", "ollama"} {
		if !slices.Contains(names, want) {
			t.Errorf("Names() = %v, missing %q", names, want)
		}
	}
}

func TestCreate_Unknown(t *testing.T) {
	if _, err := providers.Create("nope", providers.Options{}); !errors.Is(err, providers.ErrUnknownProvider) {
		t.Errorf("got %v, want ErrUnknownProvider", err)
	}
}

func TestCreate_RequiresAPIKey(t *testing.T) {
	for _, name := range []string{"anthropic", "gemini"} {
		if _, err := providers.Create(name, providers.Options{}); err == nil {
			t.Errorf("%s: expected error without api key", name)
		}
	}
}

func TestRegister(t *testing.T) {
	providers.Register("test-static", func(opts providers.Options) (providers.Provider, error) {
		return static(opts.Model), nil
	})

	p, err := providers.Create("test-static", providers.Options{Model: "echo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	resp, err := p.Complete(context.Background(), nil)
	if err != nil || response.Normalize(resp) != "echo" {
		t.Errorf("Complete = %v, %v", resp, err)
	}
}

func TestOllama_SystemAndTranscript(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"ok","done":true}`))
	}))
	defer srv.Close()

	p, err := providers.NewOllama(providers.Options{BaseURL: srv.URL + "/", Model: "llama3.1", MaxTokens: 64})
	if err != nil {
		t.Fatalf("NewOllama: %v", err)
	}

	resp, err := p.Complete(context.Background(), []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, "be brief"),
		protocol.UserMessage("hi"),
		protocol.AssistantMessage("hello"),
		protocol.UserMessage("bye"),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Kind != response.KindText || resp.Text != "ok" {
		t.Errorf("resp = %+v", resp)
	}
	if got["system"] != "be brief" {
		t.Errorf("system = %v", got["system"])
	}
	if got["prompt"] != "Human: hi\nAI: hello\nHuman: bye" {
		t.Errorf("prompt = %q", got["prompt"])
	}
	if opts := got["options"].(map[string]any); opts["num_predict"] != float64(64) {
		t.Errorf("options = %v", opts)
	}
}

func TestAnthropic_MessagesRequest(t *testing.T) {
	var got map[string]any
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		headers = r.Header.Clone()
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"role":"assistant","model":"claude","content":[{"type":"text","text":"안녕"},{"type":"text","text":"하세요"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	p, err := providers.NewAnthropic(providers.Options{BaseURL: srv.URL, APIKey: "secret", Model: "claude", Temperature: 0.1})
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}

	resp, err := p.Complete(context.Background(), []protocol.Message{
		protocol.NewMessage(protocol.RoleSystem, "system rules"),
		protocol.UserMessage("질문"),
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Kind != response.KindMessage {
		t.Errorf("Kind = %v, want message", resp.Kind)
	}
	if text := response.Normalize(resp); text != "안녕하세요" {
		t.Errorf("Normalize = %q", text)
	}
	if headers.Get("x-api-key") != "secret" || headers.Get("anthropic-version") == "" {
		t.Errorf("headers = %v", headers)
	}
	if got["system"] != "system rules" || got["max_tokens"] != float64(1024) {
		t.Errorf("request = %v", got)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["role"] != "user" {
		t.Errorf("messages = %v", msgs)
	}
}

func TestAnthropic_RequiresConversation(t *testing.T) {
	p, err := providers.NewAnthropic(providers.Options{APIKey: "k"})
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	if _, err := p.Complete(context.Background(), []protocol.Message{protocol.NewMessage(protocol.RoleSystem, "only")}); err == nil {
		t.Error("expected error for system-only conversation")
	}
}

type static string

func (s static) Name() string { return "static" }

func (s static) Complete(context.Context, []protocol.Message) (response.Response, error) {
	return response.FromText(string(s)), nil
}
