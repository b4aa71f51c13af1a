package kernel

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/corpus"
	"github.com/tailored-agentic-units/docchat/ingest"
	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/orchestrate/config"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/retrieval/bleveindex"
	"github.com/tailored-agentic-units/docchat/session"
)

// Names of the optional per-role agents in Config.Agents. A role without an
// entry uses the default agent.
const (
	AgentClassifier = "classifier"
	AgentSummarizer = "summarizer"
	AgentAnswer     = "answer"
)

// EnvPrefix prefixes environment overrides: DOCCHAT_AGENT_MODEL_NAME sets
// agent.model.name.
const EnvPrefix = "DOCCHAT"

// ServerConfig configures the HTTP and RPC listener.
type ServerConfig struct {
	Addr            string        `json:"addr" mapstructure:"addr"`
	ReadTimeout     time.Duration `json:"read_timeout,omitempty" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout,omitempty" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout,omitempty" mapstructure:"shutdown_timeout"`
}

// Merge applies non-zero values from source into c.
func (c *ServerConfig) Merge(source *ServerConfig) {
	if source.Addr != "" {
		c.Addr = source.Addr
	}
	if source.ReadTimeout > 0 {
		c.ReadTimeout = source.ReadTimeout
	}
	if source.WriteTimeout > 0 {
		c.WriteTimeout = source.WriteTimeout
	}
	if source.ShutdownTimeout > 0 {
		c.ShutdownTimeout = source.ShutdownTimeout
	}
}

// Config holds initialization parameters for every subsystem. Each section
// is owned by its package and merged with that package's Merge.
type Config struct {
	Agent     agent.Config            `json:"agent" mapstructure:"agent"`
	Agents    map[string]agent.Config `json:"agents,omitempty" mapstructure:"agents"`
	Session   session.Config          `json:"session" mapstructure:"session"`
	Intent    intent.Config           `json:"intent" mapstructure:"intent"`
	Retrieval retrieval.Config        `json:"retrieval" mapstructure:"retrieval"`
	Graph     config.GraphConfig      `json:"graph" mapstructure:"graph"`
	Index     bleveindex.Config       `json:"index" mapstructure:"index"`
	Corpus    corpus.Config           `json:"corpus" mapstructure:"corpus"`
	Ingest    ingest.Config           `json:"ingest" mapstructure:"ingest"`
	Server    ServerConfig            `json:"server" mapstructure:"server"`

	// Prompts is an optional catalog override file; see prompts.Load.
	Prompts string `json:"prompts,omitempty" mapstructure:"prompts"`

	// Observers name the registered observers events go to.
	Observers []string `json:"observers,omitempty" mapstructure:"observers"`

	// LogLevel is the minimum slog level: debug, info, warn or error.
	LogLevel string `json:"log_level,omitempty" mapstructure:"log_level"`
}

// DefaultConfig returns a Config with defaults for all subsystems.
func DefaultConfig() Config {
	index := bleveindex.DefaultConfig()
	index.Path = "data/index.bleve"

	return Config{
		Agent:     agent.DefaultConfig(),
		Session:   session.DefaultConfig(),
		Intent:    intent.DefaultConfig(),
		Retrieval: retrieval.DefaultConfig(),
		Graph:     config.DefaultGraphConfig("docchat"),
		Index:     index,
		Corpus:    corpus.DefaultConfig(),
		Ingest:    ingest.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Observers: []string{"slog"},
		LogLevel:  "info",
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Agent.Merge(&source.Agent)
	c.Session.Merge(&source.Session)
	c.Intent.Merge(&source.Intent)
	c.Retrieval.Merge(&source.Retrieval)
	c.Graph.Merge(&source.Graph)
	c.Index.Merge(&source.Index)
	c.Corpus.Merge(&source.Corpus)
	c.Ingest.Merge(&source.Ingest)
	c.Server.Merge(&source.Server)

	if len(source.Agents) > 0 {
		c.Agents = source.Agents
	}
	if source.Prompts != "" {
		c.Prompts = source.Prompts
	}
	if len(source.Observers) > 0 {
		c.Observers = source.Observers
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
}

// AgentConfig returns the named role's config layered over the default
// agent, and whether the role has an override.
func (c *Config) AgentConfig(role string) (agent.Config, bool) {
	cfg := c.Agent
	override, ok := c.Agents[role]
	if ok {
		cfg.Merge(&override)
	}
	return cfg, ok
}

// envKeys are bound individually so environment overrides work without a
// config file mentioning the key.
var envKeys = []string{
	"agent.provider.name",
	"agent.provider.base_url",
	"agent.provider.api_key",
	"agent.provider.timeout",
	"agent.model.name",
	"agent.model.temperature",
	"agent.model.max_tokens",
	"session.max_recent_turns",
	"retrieval.k",
	"retrieval.fetch_k",
	"retrieval.lambda_mult",
	"graph.observer",
	"index.path",
	"index.analyzer",
	"corpus.backend",
	"corpus.path",
	"corpus.redis.addr",
	"corpus.redis.password",
	"corpus.redis.db",
	"corpus.redis.key",
	"server.addr",
	"prompts",
	"log_level",
}

// LoadConfig reads an optional JSON or YAML file plus DOCCHAT_* environment
// overrides, merges them with defaults, and returns the resulting Config.
// An empty filename reads the environment only.
func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Merge(&loaded)
	return &cfg, nil
}
