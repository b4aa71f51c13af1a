package agent

import (
	"time"

	"github.com/tailored-agentic-units/docchat/agent/providers"
)

// ProviderConfig selects the backend and how to reach it.
type ProviderConfig struct {
	Name    string        `json:"name" mapstructure:"name"`
	BaseURL string        `json:"base_url,omitempty" mapstructure:"base_url"`
	APIKey  string        `json:"api_key,omitempty" mapstructure:"api_key"`
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}

// ModelConfig selects the model and its sampling parameters.
//
// TemperatureNil is a pointer so an explicit 0 survives Merge; read it with
// Temperature().
type ModelConfig struct {
	Name           string   `json:"name" mapstructure:"name"`
	TemperatureNil *float64 `json:"temperature,omitempty" mapstructure:"temperature"`
	MaxTokens      int      `json:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

// DefaultTemperature keeps answers close to the retrieved context.
const DefaultTemperature = 0.1

// Temperature returns the configured temperature or DefaultTemperature.
func (m *ModelConfig) Temperature() float64 {
	if m.TemperatureNil == nil {
		return DefaultTemperature
	}
	return *m.TemperatureNil
}

// Config describes one agent.
type Config struct {
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`
	Model    ModelConfig    `json:"model" mapstructure:"model"`
}

// DefaultConfig targets a local Ollama daemon.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderConfig{
			Name:    "ollama",
			BaseURL: "http://localhost:11434",
			Timeout: 2 * time.Minute,
		},
		Model: ModelConfig{
			Name: "llama3.1",
		},
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Provider.Name != "" {
		c.Provider.Name = source.Provider.Name
	}
	if source.Provider.BaseURL != "" {
		c.Provider.BaseURL = source.Provider.BaseURL
	}
	if source.Provider.APIKey != "" {
		c.Provider.APIKey = source.Provider.APIKey
	}
	if source.Provider.Timeout > 0 {
		c.Provider.Timeout = source.Provider.Timeout
	}

	if source.Model.Name != "" {
		c.Model.Name = source.Model.Name
	}
	if source.Model.TemperatureNil != nil {
		t := *source.Model.TemperatureNil
		c.Model.TemperatureNil = &t
	}
	if source.Model.MaxTokens > 0 {
		c.Model.MaxTokens = source.Model.MaxTokens
	}
}

func (c *Config) options() providers.Options {
	return providers.Options{
		BaseURL:     c.Provider.BaseURL,
		APIKey:      c.Provider.APIKey,
		Model:       c.Model.Name,
		Temperature: c.Model.Temperature(),
		MaxTokens:   c.Model.MaxTokens,
		Timeout:     c.Provider.Timeout,
	}
}
