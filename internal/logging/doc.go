// Package logging assembles structured slog loggers and formatting helpers
// used across printwatch components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes the standardized field keys so every component tags log lines
// the same way. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
