package agent_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/agent/mock"
)

func ollamaConfig(modelName string) agent.Config {
	return agent.Config{
		Provider: agent.ProviderConfig{
			Name:    "ollama",
			BaseURL: "http://localhost:11434",
		},
		Model: agent.ModelConfig{
			Name: modelName,
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := agent.NewRegistry()

	if err := r.Register("classifier", ollamaConfig("qwen3:8b")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	a, err := r.Get("classifier")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if a.ID() == "" {
		t.Error("agent has empty ID")
	}
	if a.Name() != "ollama/qwen3:8b" {
		t.Errorf("Name() = %q, want %q", a.Name(), "ollama/qwen3:8b")
	}

	a2, err := r.Get("classifier")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if a.ID() != a2.ID() {
		t.Errorf("cached agent ID mismatch: got %q and %q", a.ID(), a2.ID())
	}
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := agent.NewRegistry()

	if err := r.Register("", agent.Config{}); !errors.Is(err, agent.ErrEmptyAgentName) {
		t.Errorf("empty name: got %v, want ErrEmptyAgentName", err)
	}

	r.Register("a", ollamaConfig("m"))
	if err := r.Register("a", ollamaConfig("m")); !errors.Is(err, agent.ErrAgentExists) {
		t.Errorf("duplicate: got %v, want ErrAgentExists", err)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := agent.NewRegistry()

	if _, err := r.Get("nonexistent"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("got %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_GetUnknownProvider(t *testing.T) {
	r := agent.NewRegistry()
	r.Register("bad", agent.Config{Provider: agent.ProviderConfig{Name: "nope"}})

	if _, err := r.Get("bad"); err == nil {
		t.Error("expected instantiation error for unknown provider")
	}
}

func TestRegistry_GetOr(t *testing.T) {
	r := agent.NewRegistry()
	fallback := mock.New()

	got, err := r.GetOr("summarizer", fallback)
	if err != nil {
		t.Fatalf("GetOr: %v", err)
	}
	if got != agent.Agent(fallback) {
		t.Error("GetOr should return the fallback for an unregistered name")
	}

	named := mock.New()
	r.Put("summarizer", named)
	got, err = r.GetOr("summarizer", fallback)
	if err != nil {
		t.Fatalf("GetOr: %v", err)
	}
	if got != agent.Agent(named) {
		t.Error("GetOr should prefer the registered agent")
	}

	r.Register("broken", agent.Config{Provider: agent.ProviderConfig{Name: "nope"}})
	if _, err := r.GetOr("broken", fallback); err == nil {
		t.Error("GetOr should surface instantiation errors for registered names")
	}
}

func TestRegistry_Replace(t *testing.T) {
	r := agent.NewRegistry()
	r.Register("a", ollamaConfig("m1"))

	a1, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if err := r.Replace("a", ollamaConfig("m2")); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	a2, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get after Replace failed: %v", err)
	}
	if a1.ID() == a2.ID() {
		t.Error("expected new agent instance after Replace, got same ID")
	}
	if a2.Name() != "ollama/m2" {
		t.Errorf("Name() = %q, want ollama/m2", a2.Name())
	}

	if err := r.Replace("", agent.Config{}); !errors.Is(err, agent.ErrEmptyAgentName) {
		t.Errorf("got %v, want ErrEmptyAgentName", err)
	}
	if err := r.Replace("missing", agent.Config{}); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("got %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_List(t *testing.T) {
	r := agent.NewRegistry()
	r.Register("summarizer", ollamaConfig("llama3.1"))
	r.Register("classifier", ollamaConfig("qwen3:8b"))

	infos := r.List()
	if len(infos) != 2 {
		t.Fatalf("got %d entries, want 2", len(infos))
	}
	if infos[0].Name != "classifier" || infos[1].Name != "summarizer" {
		t.Errorf("List() not sorted: %+v", infos)
	}
	if infos[0].Provider != "ollama" || infos[0].Model != "qwen3:8b" {
		t.Errorf("infos[0] = %+v", infos[0])
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := agent.NewRegistry()
	r.Register("a", ollamaConfig("m"))
	r.Get("a")

	if err := r.Unregister("a"); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}
	if _, err := r.Get("a"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("got %v, want ErrAgentNotFound after Unregister", err)
	}
	if err := r.Unregister("a"); !errors.Is(err, agent.ErrAgentNotFound) {
		t.Errorf("got %v, want ErrAgentNotFound", err)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := agent.NewRegistry()

	for i := range 10 {
		name := string(rune('a' + i))
		r.Register(name, ollamaConfig("model-"+name))
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			r.List()
		})
		wg.Go(func() {
			r.Get("b")
		})
	}
	wg.Wait()
}
