package session

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/docchat/observability"
)

const (
	// DefaultID is used when a caller does not name a session.
	DefaultID = "default"

	// All addresses every session in Reset.
	All = "all"
)

// Registry owns the session memories of one orchestrator. Sessions are
// created on first reference and live until reset or process exit.
type Registry struct {
	cfg        Config
	summarizer Summarizer
	observer   observability.Observer

	mu       sync.RWMutex
	sessions map[string]*Memory
}

// NewRegistry creates an empty registry whose sessions share cfg and
// summarizer.
func NewRegistry(cfg Config, summarizer Summarizer, observer observability.Observer) *Registry {
	return &Registry{
		cfg:        cfg,
		summarizer: summarizer,
		observer:   observability.OrNoOp(observer),
		sessions:   make(map[string]*Memory),
	}
}

// NewID generates an identifier for a fresh session.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Get returns the memory for id, creating it if needed. An empty id means
// DefaultID.
func (r *Registry) Get(ctx context.Context, id string) *Memory {
	if id == "" {
		id = DefaultID
	}

	r.mu.RLock()
	mem, exists := r.sessions[id]
	r.mu.RUnlock()

	if exists {
		return mem
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if mem, exists := r.sessions[id]; exists {
		return mem
	}

	mem = NewMemory(id, r.cfg, r.summarizer, r.observer)
	r.sessions[id] = mem

	observability.Emit(ctx, r.observer, EventSessionCreate, observability.LevelVerbose, "session", map[string]any{
		"session_id": id,
	})
	return mem
}

// Lookup returns the memory for id without creating it.
func (r *Registry) Lookup(id string) (*Memory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.sessions[id]
	return mem, exists
}

// Reset clears one session, or every session when id is All. Unknown ids
// are ignored. Cleared sessions stay registered and empty.
func (r *Registry) Reset(ctx context.Context, id string) {
	if id == "" {
		id = DefaultID
	}

	r.mu.RLock()
	var targets []*Memory
	if id == All {
		targets = make([]*Memory, 0, len(r.sessions))
		for _, mem := range r.sessions {
			targets = append(targets, mem)
		}
	} else if mem, exists := r.sessions[id]; exists {
		targets = append(targets, mem)
	}
	r.mu.RUnlock()

	for _, mem := range targets {
		mem.Clear()
	}

	observability.Emit(ctx, r.observer, EventSessionReset, observability.LevelInfo, "session", map[string]any{
		"session_id": id,
		"cleared":    len(targets),
	})
}

// IDs lists the known session ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
