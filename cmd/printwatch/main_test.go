package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/install"
	"printwatch/internal/ipc"
	"printwatch/internal/manager"
	"printwatch/internal/testsupport"
)

// scriptedRunner answers known print commands with canned output and
// succeeds silently for everything else.
type scriptedRunner struct {
	mu    sync.Mutex
	calls []string
}

func (s *scriptedRunner) Run(_ context.Context, req cmdexec.Request) cmdexec.Result {
	command := strings.TrimSpace(req.Name + " " + strings.Join(req.Args, " "))
	s.mu.Lock()
	s.calls = append(s.calls, command)
	s.mu.Unlock()

	switch {
	case command == "systemctl is-active cups":
		return cmdexec.Result{ExitedZero: true, Stdout: "active\n"}
	case command == "lpstat -r":
		return cmdexec.Result{ExitedZero: true, Stdout: "scheduler is running\n"}
	case command == "lpstat -p Office -l":
		return cmdexec.Result{ExitedZero: true, Stdout: strings.Join([]string{
			"printer Office is idle.  enabled since Fri 29 Aug 2026",
			"\tDescription: Office Laser",
			"\tLocation: Front desk",
			"\tDeviceURI: usb://ACME/Laser",
		}, "\n")}
	case command == "lpstat -p":
		return cmdexec.Result{ExitedZero: true, Stdout: "printer Office is idle.  enabled since Fri 29 Aug 2026\n"}
	case strings.HasPrefix(command, "lpstat -o"):
		return cmdexec.Result{ExitedZero: true, Stdout: ""}
	case command == "lpinfo -m":
		return cmdexec.Result{ExitedZero: true, Stdout: strings.Join([]string{
			"drv:///sample.drv/generic.ppd Generic PostScript Printer",
			"RongtaPos/Printer80.ppd Rongta 80mm Thermal Receipt",
		}, "\n")}
	}
	return cmdexec.Result{ExitedZero: true}
}

func (s *scriptedRunner) sawCommand(prefix string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, call := range s.calls {
		if strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

type cliTestEnv struct {
	cfg        *config.Config
	runner     *scriptedRunner
	store      *history.Store
	manager    *manager.Manager
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	runner := &scriptedRunner{}

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte(""), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	client := cups.NewClient(cfg, runner, nil)
	workflow := install.New(cfg, runner, client, nil, store, nil)

	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	mgr := manager.New(cfg, client, workflow, store, manager.RuntimeInfo{
		LockPath:   filepath.Join(cfg.Paths.LogDir, "cli.lock"),
		SocketPath: socketPath,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	mgr.Start(ctx)

	srv, err := ipc.NewServer(ctx, socketPath, mgr, nil)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		runner:     runner,
		store:      store,
		manager:    mgr,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		mgr.Stop()
		store.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIPingAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"ping"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	requireContains(t, out, "Daemon is running")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "pid")
	requireContains(t, out, env.socketPath)
}

func TestCLIStatusDaemonDown(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")

	out, _, err := runCLI(t, []string{"status"}, socket, "")
	if err != nil {
		t.Fatalf("status with daemon down should not error: %v", err)
	}
	requireContains(t, out, "not reachable")

	_, _, err = runCLI(t, []string{"ping"}, socket, "")
	if err == nil {
		t.Fatal("expected ping to fail with daemon down")
	}
	if !strings.Contains(err.Error(), "is printwatchd running?") {
		t.Fatalf("expected dial hint in error, got %v", err)
	}
}

func TestCLIHealthAndPrinters(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"health"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "active")
	requireContains(t, out, "Office")

	out, _, err = runCLI(t, []string{"printers"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("printers: %v", err)
	}
	requireContains(t, out, "Office")
	requireContains(t, out, "usb://ACME/Laser")
	requireContains(t, out, "1 printer configured")

	out, _, err = runCLI(t, []string{"printers", "show", "Office"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("printers show: %v", err)
	}
	requireContains(t, out, "Office Laser")
	requireContains(t, out, "Front desk")
}

func TestCLIFixPrintsTranscript(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"fix"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	requireContains(t, out, "service active and verified")
	requireContains(t, out, "Print service recovered")
	if !env.runner.sawCommand("systemctl restart cups") {
		t.Fatal("expected recovery to restart the service")
	}
}

func TestCLIDriversAndInstall(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"drivers", "search", "rongta"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("drivers search: %v", err)
	}
	requireContains(t, out, "RongtaPos/Printer80.ppd")
	if strings.Contains(out, "generic.ppd") {
		t.Fatalf("expected keyword filter to drop generic driver, got:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"install", "80Series"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	requireContains(t, out, "queue 80Series")
	requireContains(t, out, "RongtaPos/Printer80.ppd")
	if !env.runner.sawCommand("lpadmin -p 80Series") {
		t.Fatal("expected install to run lpadmin")
	}

	// Install and fix runs above should now show up in history.
	out, _, err = runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "install")
}

func TestCLIConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, filepath.Join(t.TempDir(), "unused.sock"), "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, filepath.Join(t.TempDir(), "unused.sock"), "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
}

func TestCLIHistoryLimit(t *testing.T) {
	env := setupCLITestEnv(t)

	for i := 0; i < 5; i++ {
		if err := env.store.Record(context.Background(), history.Event{
			Kind:    history.KindTestPrint,
			Printer: "Office",
			Success: true,
		}); err != nil {
			t.Fatalf("record event: %v", err)
		}
	}

	out, _, err := runCLI(t, []string{"history", "--limit", "2"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if got := strings.Count(out, "test_print"); got != 2 {
		t.Fatalf("expected 2 events with limit, got %d:\n%s", got, out)
	}

	// Give the startup probe time to finish before teardown closes the store.
	deadline := time.After(5 * time.Second)
	for {
		status, err := env.manager.Status(context.Background())
		if err != nil {
			t.Fatalf("Status: %v", err)
		}
		if status.Health != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("startup probe never completed")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
