// Package testsupport provides per-test configuration builders backed by
// unique temp directories.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"printwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with temp directories and zeroed settle
// delays so suites stay fast. Privileged commands run directly (no sudo).
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Service.SpoolDir = filepath.Join(base, "spool")
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.Service.SpoolDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create test dir %s: %v", dir, err)
		}
	}
	cfg.Service.DiscoveryStagingPath = filepath.Join(base, "staging.conf")
	cfg.Service.DiscoveryConfigPath = filepath.Join(base, "cups-browsed.conf")
	cfg.Service.PrivilegeCommand = ""
	cfg.Timeouts.RestartSettle = 0
	cfg.Timeouts.TestPrintSettle = 0
	cfg.Timeouts.InstallSettle = 0
	cfg.Watcher.DeviceSettle = 0
	cfg.Watcher.SearchDebounceMS = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithPredefined overrides the predefined driver map on the test config.
func WithPredefined(mapping map[string]string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Drivers.Predefined = mapping
	}
}

// WithSpoolDir overrides the spool directory on the test config.
func WithSpoolDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Service.SpoolDir = dir
	}
}
