// Package config holds the settings the orchestration graph is built from.
//
// Configuration only exists during initialization: it is loaded (JSON, YAML
// or environment through kernel.LoadConfig), merged over defaults, then turned
// into a compiled graph. Runtime components never hold a config value.
//
// # Merging
//
// Every type supports Merge so loaded values can be layered over defaults:
//
//	cfg := config.DefaultGraphConfig("docchat")
//	cfg.Merge(&loaded)
//
// Merge semantics by field type:
//
//   - Strings: merge if source is non-empty
//   - Integers: merge if source is greater than zero
package config
