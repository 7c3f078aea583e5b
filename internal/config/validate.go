package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateService(); err != nil {
		return err
	}
	if err := c.validateDrivers(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateService() error {
	if c.Service.Name == "" {
		return errors.New("service.name must be set")
	}
	if c.Service.DiscoveryService == "" {
		return errors.New("service.discovery_service must be set")
	}
	if c.Service.SpoolDir == "" {
		return errors.New("service.spool_dir must be set")
	}
	if c.Service.DiscoveryConfigPath == "" {
		return errors.New("service.discovery_config_path must be set")
	}
	if c.Service.DiscoveryStagingPath == "" {
		return errors.New("service.discovery_staging_path must be set")
	}
	return nil
}

func (c *Config) validateDrivers() error {
	if c.Drivers.GenericURI == "" {
		return errors.New("drivers.generic_uri must be set")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	checks := []struct {
		name  string
		value int
	}{
		{"timeouts.check", c.Timeouts.Check},
		{"timeouts.operation", c.Timeouts.Operation},
		{"timeouts.install", c.Timeouts.Install},
		{"timeouts.driver_load", c.Timeouts.DriverLoad},
	}
	for _, check := range checks {
		if check.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", check.name, check.value)
		}
	}
	if c.Timeouts.RestartSettle < 0 || c.Timeouts.TestPrintSettle < 0 || c.Timeouts.InstallSettle < 0 {
		return errors.New("timeouts settle values must not be negative")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.HealthInterval <= 0 {
		return fmt.Errorf("workflow.health_interval must be positive, got %d", c.Workflow.HealthInterval)
	}
	if c.Workflow.Workers <= 0 {
		return fmt.Errorf("workflow.workers must be positive, got %d", c.Workflow.Workers)
	}
	if c.Watcher.SearchDebounceMS < 0 {
		return errors.New("watcher.search_debounce_ms must not be negative")
	}
	return nil
}
