package config

const (
	defaultStateDir             = "~/.local/share/printwatch"
	defaultLogDir               = "~/.local/share/printwatch/logs"
	defaultServiceName          = "cups"
	defaultDiscoveryService     = "cups-browsed"
	defaultSpoolDir             = "/var/spool/cups"
	defaultDiscoveryConfigPath  = "/etc/cups/cups-browsed.conf"
	defaultDiscoveryStagingPath = "/tmp/cups-browsed-disable.conf"
	defaultPrivilegeCommand     = "sudo"
	defaultGenericDriverURI     = "drv:///sample.drv/generic.ppd"
	defaultCheckTimeout         = 3
	defaultOperationTimeout     = 10
	defaultInstallTimeout       = 15
	defaultDriverLoadTimeout    = 15
	defaultRestartSettle        = 3
	defaultTestPrintSettle      = 3
	defaultInstallSettle        = 2
	defaultDeviceSettle         = 1
	defaultWatcherRetryBackoff  = 5
	defaultSearchDebounceMS     = 300
	defaultHealthInterval       = 10
	defaultWorkers              = 2
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Service: Service{
			Name:                 defaultServiceName,
			DiscoveryService:     defaultDiscoveryService,
			SpoolDir:             defaultSpoolDir,
			DiscoveryConfigPath:  defaultDiscoveryConfigPath,
			DiscoveryStagingPath: defaultDiscoveryStagingPath,
			PrivilegeCommand:     defaultPrivilegeCommand,
		},
		Drivers: Drivers{
			Predefined: map[string]string{
				"80Series":  "RongtaPos/Printer80.ppd",
				"80Series2": "RongtaPos/Printer80.ppd",
			},
			GenericURI: defaultGenericDriverURI,
		},
		Timeouts: Timeouts{
			Check:           defaultCheckTimeout,
			Operation:       defaultOperationTimeout,
			Install:         defaultInstallTimeout,
			DriverLoad:      defaultDriverLoadTimeout,
			RestartSettle:   defaultRestartSettle,
			TestPrintSettle: defaultTestPrintSettle,
			InstallSettle:   defaultInstallSettle,
		},
		Watcher: Watcher{
			Enabled:          true,
			DeviceSettle:     defaultDeviceSettle,
			RetryBackoff:     defaultWatcherRetryBackoff,
			SearchDebounceMS: defaultSearchDebounceMS,
		},
		Workflow: Workflow{
			HealthInterval: defaultHealthInterval,
			Workers:        defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
