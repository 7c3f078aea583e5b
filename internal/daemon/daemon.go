package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"printwatch/internal/config"
	"printwatch/internal/history"
	"printwatch/internal/logging"
	"printwatch/internal/manager"
)

// LockName is the daemon lock filename inside the log dir.
const LockName = "printwatchd.lock"

// LockPath resolves the daemon lock location for a configuration.
func LockPath(cfg *config.Config) string {
	dir, err := config.ExpandPath(cfg.Paths.LogDir)
	if err != nil {
		dir = cfg.Paths.LogDir
	}
	return filepath.Join(dir, LockName)
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	manager *manager.Manager
	monitor *usbMonitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies. The store may be
// nil when history persistence is unavailable.
func New(cfg *config.Config, store *history.Store, mgr *manager.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || mgr == nil {
		return nil, errors.New("daemon requires config and manager")
	}

	lockPath := LockPath(cfg)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure log dir: %w", err)
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  mgr,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if cfg.Watcher.Enabled {
		d.monitor = newUSBMonitor(cfg, logger, mgr.SubmitInstall)
	}
	return d, nil
}

// LockFilePath returns the daemon lock location.
func (d *Daemon) LockFilePath() string {
	return d.lockPath
}

// Start acquires the daemon lock, launches the manager, disables CUPS
// auto-discovery, and arms the USB watcher.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another printwatch daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.manager.Start(d.ctx)

	// Discovery stays off so cups-browsed cannot recreate queues behind our
	// back. The call is idempotent.
	if disabled, message, err := d.manager.DisableDiscovery(d.ctx); err != nil || !disabled {
		d.logger.Warn("could not disable auto-discovery",
			logging.String("detail", message),
			logging.Error(err),
			logging.String(logging.FieldEventType, "discovery_disable_failed"),
			logging.String(logging.FieldImpact, "cups-browsed may recreate removed queues"),
		)
	}

	if d.monitor != nil {
		d.monitor.Start(d.ctx)
		d.manager.SetWatcherRunning(d.monitor.Running())
	}

	d.running.Store(true)
	d.logger.Info("printwatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.monitor != nil {
		d.monitor.Stop()
		d.manager.SetWatcherRunning(false)
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("printwatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
