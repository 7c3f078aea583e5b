package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Service.Name = strings.TrimSpace(c.Service.Name)
	c.Service.DiscoveryService = strings.TrimSpace(c.Service.DiscoveryService)
	c.Service.SpoolDir = strings.TrimSpace(c.Service.SpoolDir)
	c.Service.DiscoveryConfigPath = strings.TrimSpace(c.Service.DiscoveryConfigPath)
	c.Service.DiscoveryStagingPath = strings.TrimSpace(c.Service.DiscoveryStagingPath)

	c.Drivers.GenericURI = strings.TrimSpace(c.Drivers.GenericURI)
	normalized := make(map[string]string, len(c.Drivers.Predefined))
	for model, uri := range c.Drivers.Predefined {
		model = strings.TrimSpace(model)
		uri = strings.TrimSpace(uri)
		if model == "" || uri == "" {
			continue
		}
		normalized[model] = uri
	}
	c.Drivers.Predefined = normalized

	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
