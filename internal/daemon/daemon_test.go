package daemon

import (
	"context"
	"strings"
	"sync"
	"testing"

	"printwatch/internal/cmdexec"
	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/install"
	"printwatch/internal/manager"
	"printwatch/internal/testsupport"
)

type recordingRunner struct {
	mu    sync.Mutex
	calls []cmdexec.Request
}

func (r *recordingRunner) Run(_ context.Context, req cmdexec.Request) cmdexec.Result {
	r.mu.Lock()
	r.calls = append(r.calls, req)
	r.mu.Unlock()
	return cmdexec.Result{ExitedZero: true}
}

func (r *recordingRunner) sawCommand(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, call := range r.calls {
		line := strings.TrimSpace(call.Name + " " + strings.Join(call.Args, " "))
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func newTestDaemon(t *testing.T, cfg *config.Config, runner *recordingRunner) *Daemon {
	t.Helper()
	client := cups.NewClient(cfg, runner, nil)
	workflow := install.New(cfg, runner, client, nil, nil, nil)
	mgr := manager.New(cfg, client, workflow, nil, manager.RuntimeInfo{LockPath: LockPath(cfg)}, nil)

	d, err := New(cfg, nil, mgr, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func testConfig(t *testing.T) *config.Config {
	cfg := testsupport.NewConfig(t)
	cfg.Watcher.Enabled = false
	return cfg
}

func TestDaemonSingleInstance(t *testing.T) {
	cfg := testConfig(t)

	first := newTestDaemon(t, cfg, &recordingRunner{})
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}

	second := newTestDaemon(t, cfg, &recordingRunner{})
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("second instance must fail to acquire the lock")
	}

	first.Stop()

	// Lock released, a new instance can start.
	third := newTestDaemon(t, cfg, &recordingRunner{})
	if err := third.Start(context.Background()); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
}

func TestDaemonStartDisablesDiscovery(t *testing.T) {
	cfg := testConfig(t)
	runner := &recordingRunner{}
	d := newTestDaemon(t, cfg, runner)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !runner.sawCommand("systemctl stop " + cfg.Service.DiscoveryService) {
		t.Fatal("discovery helper was not stopped at startup")
	}
	if !runner.sawCommand("systemctl disable " + cfg.Service.DiscoveryService) {
		t.Fatal("discovery helper was not disabled at startup")
	}
	if !runner.sawCommand("cp " + cfg.Service.DiscoveryStagingPath) {
		t.Fatal("discovery config was not installed at startup")
	}
}

func TestDaemonStopIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg, &recordingRunner{})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected running daemon")
	}
	d.Stop()
	d.Stop()
	if d.Running() {
		t.Fatal("daemon still reports running after Stop")
	}
}

func TestDaemonRejectsDoubleStart(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDaemon(t, cfg, &recordingRunner{})

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start on a running daemon must fail")
	}
}
