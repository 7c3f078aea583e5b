package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Service contains the names and filesystem locations of the print service
// and its auto-discovery helper.
type Service struct {
	Name                 string `toml:"name"`
	DiscoveryService     string `toml:"discovery_service"`
	SpoolDir             string `toml:"spool_dir"`
	DiscoveryConfigPath  string `toml:"discovery_config_path"`
	DiscoveryStagingPath string `toml:"discovery_staging_path"`
	PrivilegeCommand     string `toml:"privilege_command"`
}

// Drivers contains the predefined model-to-driver map and the generic
// fallback driver URI.
type Drivers struct {
	Predefined map[string]string `toml:"predefined"`
	GenericURI string            `toml:"generic_uri"`
}

// Timeouts contains per-call subprocess deadlines and settle delays, in seconds.
type Timeouts struct {
	Check           int `toml:"check"`
	Operation       int `toml:"operation"`
	Install         int `toml:"install"`
	DriverLoad      int `toml:"driver_load"`
	RestartSettle   int `toml:"restart_settle"`
	TestPrintSettle int `toml:"test_print_settle"`
	InstallSettle   int `toml:"install_settle"`
}

// Watcher contains USB hot-plug monitoring knobs.
type Watcher struct {
	Enabled          bool `toml:"enabled"`
	DeviceSettle     int  `toml:"device_settle"`
	RetryBackoff     int  `toml:"retry_backoff"`
	SearchDebounceMS int  `toml:"search_debounce_ms"`
}

// Workflow contains daemon timing and worker pool configuration.
type Workflow struct {
	HealthInterval int `toml:"health_interval"`
	Workers        int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for printwatch.
//
// Sections by subsystem:
//   - Paths: state and log directories
//   - Service: print service / discovery helper names and paths
//   - Drivers: predefined model mappings and the generic fallback
//   - Timeouts: subprocess deadlines and settle delays
//   - Watcher: USB hot-plug monitoring
//   - Workflow: health polling interval and worker pool size
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Service  Service  `toml:"service"`
	Drivers  Drivers  `toml:"drivers"`
	Timeouts Timeouts `toml:"timeouts"`
	Watcher  Watcher  `toml:"watcher"`
	Workflow Workflow `toml:"workflow"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/printwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("printwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CheckTimeout is the deadline for quick status probes.
func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.Timeouts.Check) * time.Second
}

// OperationTimeout is the deadline for state-changing printer commands.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.Timeouts.Operation) * time.Second
}

// InstallTimeout is the deadline for lpadmin create/update calls.
func (c *Config) InstallTimeout() time.Duration {
	return time.Duration(c.Timeouts.Install) * time.Second
}

// DriverLoadTimeout is the deadline for the full lpinfo -m listing.
func (c *Config) DriverLoadTimeout() time.Duration {
	return time.Duration(c.Timeouts.DriverLoad) * time.Second
}

// RestartSettle is the pause after a service restart before re-verifying.
func (c *Config) RestartSettle() time.Duration {
	return time.Duration(c.Timeouts.RestartSettle) * time.Second
}

// TestPrintSettle is the pause after enable/accept before submitting a
// test page. The delay itself is inherited behavior; keep it tunable.
func (c *Config) TestPrintSettle() time.Duration {
	return time.Duration(c.Timeouts.TestPrintSettle) * time.Second
}

// InstallSettle is the pause after enable/accept at the end of an install.
func (c *Config) InstallSettle() time.Duration {
	return time.Duration(c.Timeouts.InstallSettle) * time.Second
}

// DeviceSettle is the pause after a USB add event before reading identity.
func (c *Config) DeviceSettle() time.Duration {
	return time.Duration(c.Watcher.DeviceSettle) * time.Second
}

// WatcherRetryBackoff is the pause before re-arming a failed watch loop.
func (c *Config) WatcherRetryBackoff() time.Duration {
	return time.Duration(c.Watcher.RetryBackoff) * time.Second
}

// SearchDebounce is the quiet period before dispatching a driver search.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.Watcher.SearchDebounceMS) * time.Millisecond
}

// HealthInterval is the period between automatic health checks.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.Workflow.HealthInterval) * time.Second
}

// PrivilegeArgs returns the command prefix for privileged operations, or nil
// when commands run directly.
func (c *Config) PrivilegeArgs() []string {
	trimmed := strings.TrimSpace(c.Service.PrivilegeCommand)
	if trimmed == "" {
		return nil
	}
	return strings.Fields(trimmed)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
