package corpus

import (
	"context"
	"fmt"
)

// Backend names accepted by Config.Backend.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures the corpus backend.
type Config struct {
	Backend    string      `json:"backend,omitempty" mapstructure:"backend"`
	Path       string      `json:"path,omitempty" mapstructure:"path"`
	Extensions []string    `json:"extensions,omitempty" mapstructure:"extensions"`
	Redis      RedisConfig `json:"redis" mapstructure:"redis"`
}

// DefaultConfig returns a file backend rooted at ./documents reading text,
// markdown and PDF files.
func DefaultConfig() Config {
	return Config{
		Backend:    BackendFile,
		Path:       "documents",
		Extensions: []string{".txt", ".md", ".pdf"},
		Redis:      DefaultRedisConfig(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Backend != "" {
		c.Backend = source.Backend
	}
	if source.Path != "" {
		c.Path = source.Path
	}
	if len(source.Extensions) > 0 {
		c.Extensions = source.Extensions
	}
	c.Redis.Merge(&source.Redis)
}

// NewStore creates the configured Store. The redis backend is pinged before
// it is returned.
func NewStore(ctx context.Context, cfg *Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Path, cfg.Extensions...), nil
	case BackendRedis:
		store, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown corpus backend %q", cfg.Backend)
	}
}
