// Package config loads, normalizes, and validates the printwatch TOML
// configuration. All path fields are expanded to absolute paths during Load,
// and duration knobs are exposed as accessor methods so callers never
// interpret raw seconds themselves.
package config
