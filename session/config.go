package session

// Config holds session memory parameters.
type Config struct {
	// MaxRecentTurns is how many user/assistant turns stay verbatim. Once a
	// session holds more than 2*MaxRecentTurns messages the older ones are
	// folded into the summary.
	MaxRecentTurns int `json:"max_recent_turns" mapstructure:"max_recent_turns"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		MaxRecentTurns: 4,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxRecentTurns > 0 {
		c.MaxRecentTurns = source.MaxRecentTurns
	}
}
