// Package kernel assembles the document Q&A runtime from configuration:
// agents, prompt catalog, session memory and the query graph that routes a
// question through classification, retrieval and answer generation.
//
// The kernel initializes from configuration via New. Functional options
// allow test overrides of any subsystem. Build binds a retriever and returns
// an Orchestrator that owns its own session registry.
//
//	k, err := kernel.New(&cfg)
//	orch, err := k.Build(index)
//	answer, err := orch.Run(ctx, "이력 요약해줘", "session-1")
package kernel

import (
	"fmt"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/prompts"
)

// Option configures a Kernel after config-driven initialization.
// Applied by New after cold start; overrides replace config-created defaults.
type Option func(*Kernel)

// WithAgent overrides the config-created default agent.
func WithAgent(a agent.Agent) Option {
	return func(k *Kernel) { k.agent = a }
}

// WithRegistry overrides the config-created role agent registry.
func WithRegistry(r *agent.Registry) Option {
	return func(k *Kernel) { k.registry = r }
}

// WithCatalog overrides the configured prompt catalog.
func WithCatalog(c *prompts.Catalog) Option {
	return func(k *Kernel) { k.catalog = c }
}

// WithObserver overrides the observers named in Config.Observers.
func WithObserver(o observability.Observer) Option {
	return func(k *Kernel) { k.observer = o }
}

// Kernel holds the subsystems shared by every Orchestrator it builds.
type Kernel struct {
	cfg      Config
	agent    agent.Agent
	registry *agent.Registry
	catalog  *prompts.Catalog
	observer observability.Observer
}

// New creates a Kernel from configuration. The default agent, the role
// agents in cfg.Agents, the prompt catalog and the observers are initialized
// from their config sections; options applied afterwards can replace any of
// them.
func New(cfg *Config, opts ...Option) (*Kernel, error) {
	a, err := agent.New(&cfg.Agent)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	reg := agent.NewRegistry()
	for role := range cfg.Agents {
		roleCfg, _ := cfg.AgentConfig(role)
		if err := reg.Register(role, roleCfg); err != nil {
			return nil, fmt.Errorf("failed to register agent %q: %w", role, err)
		}
	}

	catalog := prompts.Default()
	if cfg.Prompts != "" {
		catalog, err = prompts.Load(cfg.Prompts)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
	}

	observer, err := observability.ResolveObservers(cfg.Observers...)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observers: %w", err)
	}

	k := &Kernel{
		cfg:      *cfg,
		agent:    a,
		registry: reg,
		catalog:  catalog,
		observer: observer,
	}

	for _, opt := range opts {
		opt(k)
	}

	return k, nil
}

// Config returns the configuration the kernel was created from.
func (k *Kernel) Config() Config {
	return k.cfg
}

// Registry returns the kernel's role agent registry.
func (k *Kernel) Registry() *agent.Registry {
	return k.registry
}

// Catalog returns the prompt catalog.
func (k *Kernel) Catalog() *prompts.Catalog {
	return k.catalog
}

// Observer returns the observer every subsystem reports to.
func (k *Kernel) Observer() observability.Observer {
	return k.observer
}

// roleAgent returns the agent registered for role, or the default agent.
func (k *Kernel) roleAgent(role string) (agent.Agent, error) {
	a, err := k.registry.GetOr(role, k.agent)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s agent: %w", role, err)
	}
	return a, nil
}
