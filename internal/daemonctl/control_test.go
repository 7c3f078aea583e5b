package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
	"printwatch/internal/cups"
	"printwatch/internal/install"
	"printwatch/internal/ipc"
	"printwatch/internal/manager"
	"printwatch/internal/testsupport"
)

type okRunner struct{}

func (okRunner) Run(_ context.Context, _ cmdexec.Request) cmdexec.Result {
	return cmdexec.Result{ExitedZero: true}
}

func startTestDaemon(t *testing.T) string {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	client := cups.NewClient(cfg, okRunner{}, nil)
	workflow := install.New(cfg, okRunner{}, client, nil, nil, nil)
	socketPath := filepath.Join(cfg.Paths.LogDir, "ctl.sock")
	mgr := manager.New(cfg, client, workflow, nil, manager.RuntimeInfo{SocketPath: socketPath}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	srv, err := ipc.NewServer(ctx, socketPath, mgr, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		mgr.Stop()
	})
	return socketPath
}

func TestEnsureStartedAlreadyRunning(t *testing.T) {
	socketPath := startTestDaemon(t)

	result, err := EnsureStarted(socketPath, "printwatchd-never-launched", LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != StartStateAlreadyRunning {
		t.Fatalf("expected already running, got %q", result.State)
	}
	if result.Launched {
		t.Fatal("expected no launch against a running daemon")
	}
	if result.PID != os.Getpid() {
		t.Fatalf("expected test process PID, got %d", result.PID)
	}
}

func TestProcessInfo(t *testing.T) {
	socketPath := startTestDaemon(t)

	running, pid, err := ProcessInfo(socketPath)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if !running || pid != os.Getpid() {
		t.Fatalf("unexpected info running=%v pid=%d", running, pid)
	}

	running, pid, err = ProcessInfo(filepath.Join(t.TempDir(), "missing.sock"))
	if err != nil {
		t.Fatalf("ProcessInfo missing socket: %v", err)
	}
	if running || pid != 0 {
		t.Fatalf("expected not running, got running=%v pid=%d", running, pid)
	}
}

func TestStopAndTerminateNotRunning(t *testing.T) {
	_, err := StopAndTerminate(filepath.Join(t.TempDir(), "missing.sock"), time.Second)
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestWaitForShutdownMissingSocket(t *testing.T) {
	if err := WaitForShutdown(filepath.Join(t.TempDir(), "missing.sock"), time.Second); err != nil {
		t.Fatalf("expected missing socket to count as stopped, got %v", err)
	}
}

func TestLaunchRejectsEmptyExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}
