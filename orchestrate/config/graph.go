package config

// GraphConfig defines configuration for state graph execution.
//
// Observer is a name resolved through the observability registry so the
// value can live in a config file. A graph built with an explicit observer
// ignores it.
//
// Example YAML:
//
//	graph:
//	  name: docchat
//	  observer: slog
//	  max_iterations: 16
type GraphConfig struct {
	// Name identifies the graph in emitted events.
	Name string `json:"name" mapstructure:"name"`

	// Observer names the registered observer ("noop", "slog", "metrics").
	Observer string `json:"observer" mapstructure:"observer"`

	// MaxIterations bounds the number of node executions per run.
	MaxIterations int `json:"max_iterations" mapstructure:"max_iterations"`
}

// DefaultGraphConfig returns defaults for graph execution.
//
// Default values:
//   - Observer: "slog"
//   - MaxIterations: 100
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:          name,
		Observer:      "slog",
		MaxIterations: 100,
	}
}

func (c *GraphConfig) Merge(source *GraphConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}

	if source.MaxIterations > 0 {
		c.MaxIterations = source.MaxIterations
	}
}
