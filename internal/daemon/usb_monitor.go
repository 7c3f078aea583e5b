package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/logging"
)

// usbMonitor listens for udev netlink events and submits an install when a
// USB printer appears. This replaces udev rules that would have to invoke
// the CLI as root.
type usbMonitor struct {
	cfg    *config.Config
	logger *slog.Logger
	submit func(model string) bool

	// readID and sleep are replaceable in tests.
	readID func() (string, bool)
	sleep  func(context.Context, time.Duration)

	mu      sync.Mutex
	quit    chan struct{}
	running bool
}

func newUSBMonitor(cfg *config.Config, logger *slog.Logger, submit func(model string) bool) *usbMonitor {
	return &usbMonitor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "usb-monitor"),
		submit: submit,
		readID: cups.ReadDeviceID,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Start begins listening for udev netlink events.
func (m *usbMonitor) Start(ctx context.Context) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("usb monitor started",
		logging.String(logging.FieldEventType, "usb_monitor_started"),
	)
}

// Stop shuts down the monitor.
func (m *usbMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	m.running = false

	m.logger.Info("usb monitor stopped",
		logging.String(logging.FieldEventType, "usb_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *usbMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop keeps a netlink subscription alive. Failures log and re-arm
// after a backoff; the loop only exits on Stop or context cancellation.
func (m *usbMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	backoff := m.cfg.WatcherRetryBackoff()
	if backoff <= 0 {
		backoff = 5 * time.Second
	}

	for {
		conn := new(netlink.UEventConn)
		if err := conn.Connect(netlink.UdevEvent); err != nil {
			m.logger.Warn("failed to connect to netlink socket",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_connect_failed"),
				logging.String(logging.FieldErrorHint, "ensure the daemon has permission to access netlink sockets"),
				logging.String(logging.FieldImpact, "automatic printer installation unavailable until reconnect"),
			)
			if !m.wait(ctx, quit, backoff) {
				return
			}
			continue
		}

		rearm := m.watch(ctx, quit, conn)
		_ = conn.Close()
		if !rearm {
			return
		}
		if !m.wait(ctx, quit, backoff) {
			return
		}
	}
}

// wait pauses for the backoff duration. It returns false when the monitor
// should shut down because ctx was cancelled or Stop closed quit.
func (m *usbMonitor) wait(ctx context.Context, quit <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-quit:
		return false
	case <-timer.C:
		return true
	}
}

// watch consumes events from one subscription. It returns true when the
// subscription failed and should be re-armed, false on shutdown.
func (m *usbMonitor) watch(ctx context.Context, quit <-chan struct{}, conn *netlink.UEventConn) bool {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return false
		case <-quit:
			close(monitorQuit)
			return false
		case uevent := <-queue:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("usb monitor error, re-arming",
				logging.Error(err),
				logging.String(logging.FieldEventType, "usb_monitor_error"),
				logging.String(logging.FieldImpact, "hot-plug events missed until reconnect"),
			)
			close(monitorQuit)
			return true
		}
	}
}

// buildMatcher matches USB device additions: ACTION=add, SUBSYSTEM=usb,
// DEVTYPE=usb_device.
func (m *usbMonitor) buildMatcher() netlink.Matcher {
	action := "add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
			"DEVTYPE":   "usb_device",
		},
	})
	return rules
}

// handleEvent identifies the plugged device and submits an install. Most USB
// additions are not printers; those are dropped silently once the identity
// blob turns out to be absent.
func (m *usbMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	// The usblp node needs a moment to appear after the add event.
	m.sleep(ctx, m.cfg.DeviceSettle())

	blob, ok := m.readID()
	if !ok {
		m.logger.Debug("no printer identity found for usb event",
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	model, ok := cups.ExtractModel(blob)
	if !ok {
		m.logger.Debug("identity blob has no model field",
			logging.String("blob", blob),
		)
		return
	}

	m.logger.Info("usb printer detected",
		logging.String(logging.FieldEventType, "usb_printer_detected"),
		logging.String(logging.FieldModel, model),
	)

	if m.submit == nil {
		return
	}
	if !m.submit(model) {
		m.logger.Warn("install submission rejected",
			logging.String(logging.FieldModel, model),
			logging.String(logging.FieldImpact, "printer not installed automatically"),
		)
	}
}
