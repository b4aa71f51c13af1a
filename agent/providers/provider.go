// Package providers implements the LLM backends an agent can talk to. Each
// backend turns a conversation into one completion and reports it in the
// response shape it natively produces.
package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/core/response"
)

// ErrUnknownProvider is returned by Create for an unregistered name.
var ErrUnknownProvider = errors.New("unknown provider")

// Provider performs a single completion over a conversation.
type Provider interface {
	Name() string
	Complete(ctx context.Context, msgs []protocol.Message) (response.Response, error)
}

// Options carries everything a provider needs to reach its model.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Factory builds a provider from options.
type Factory func(opts Options) (Provider, error)

var (
	factories = map[string]Factory{
		"ollama":    NewOllama,
		"anthropic": NewAnthropic,
		"gemini":    NewGemini,
	}
	mutex sync.RWMutex
)

// Register adds or replaces a named factory.
func Register(name string, factory Factory) {
	mutex.Lock()
	defer mutex.Unlock()

	factories[name] = factory
}

// Create builds the named provider.
func Create(name string, opts Options) (Provider, error) {
	mutex.RLock()
	factory, exists := factories[name]
	mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return factory(opts)
}

// Names lists the registered provider names in sorted order.
func Names() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
