package cups

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
	"printwatch/internal/testsupport"
)

func TestFixHappyPathTranscript(t *testing.T) {
	runner := &fakeRunner{}
	client := newTestClient(t, runner)

	ok, transcript := client.Fix(context.Background())
	if !ok {
		t.Fatalf("expected success, transcript: %v", transcript)
	}
	if len(transcript) != 5 {
		t.Fatalf("expected 5 transcript entries, got %d: %v", len(transcript), transcript)
	}
	if transcript[4] != "✓ service active and verified" {
		t.Fatalf("expected verification line last, got %q", transcript[4])
	}
	for _, entry := range transcript {
		if !strings.HasPrefix(entry, "✓") {
			t.Fatalf("expected all steps to succeed, got %q", entry)
		}
	}
}

func TestFixContinuesPastStepFailures(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		switch commandLine(req) {
		case "systemctl stop cups-browsed":
			return cmdexec.Result{Stderr: "Failed to stop cups-browsed.service"}
		case "cancel -a":
			return cmdexec.Result{Stderr: "cancel: No destinations added"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	ok, transcript := client.Fix(context.Background())
	if !ok {
		t.Fatalf("early step failures must not gate the outcome: %v", transcript)
	}
	if len(transcript) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(transcript))
	}
	if !strings.HasPrefix(transcript[0], "⚠") || !strings.HasPrefix(transcript[1], "⚠") {
		t.Fatalf("expected warning markers for failed steps: %v", transcript[:2])
	}
	if got := runner.callCount("systemctl", "restart"); got != 1 {
		t.Fatalf("restart should still run, got %d calls", got)
	}
}

func TestFixRestartFailureEndsWithUnverified(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if commandLine(req) == "systemctl restart cups" {
			return cmdexec.Result{Stderr: "Job for cups.service failed"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	ok, transcript := client.Fix(context.Background())
	if ok {
		t.Fatal("expected failure when restart fails")
	}
	if len(transcript) != 5 {
		t.Fatalf("expected 5 entries, got %d: %v", len(transcript), transcript)
	}
	if transcript[4] != "✗ service not verified" {
		t.Fatalf("expected unverified marker last, got %q", transcript[4])
	}
	if got := runner.callCount("systemctl", "is-active"); got != 0 {
		t.Fatalf("verification must be skipped after restart failure, got %d calls", got)
	}
}

func TestFixVerificationFailure(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if commandLine(req) == "systemctl is-active cups" {
			return cmdexec.Result{Stderr: "failed"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	ok, transcript := client.Fix(context.Background())
	if ok {
		t.Fatal("expected failure when service does not come back")
	}
	if transcript[4] != "✗ service failed to start" {
		t.Fatalf("unexpected final entry %q", transcript[4])
	}
}

func TestFixCleansSpoolFilesOnly(t *testing.T) {
	runner := &fakeRunner{}
	cfg := testsupport.NewConfig(t)
	client := NewClient(cfg, runner, nil)
	client.sleep = func(context.Context, time.Duration) {}

	spool := cfg.Service.SpoolDir
	if err := os.WriteFile(filepath.Join(spool, "c00001"), []byte("job"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(spool, "d00001-001"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(spool, "tmp"), 0o755); err != nil {
		t.Fatal(err)
	}

	ok, transcript := client.Fix(context.Background())
	if !ok {
		t.Fatalf("Fix failed: %v", transcript)
	}
	if transcript[2] != "✓ cleaned spool directory (2 files)" {
		t.Fatalf("unexpected spool entry %q", transcript[2])
	}
	entries, err := os.ReadDir(spool)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		t.Fatalf("expected only the tmp subdirectory to survive, got %v", entries)
	}
}

func TestDisableDiscoveryWritesConfig(t *testing.T) {
	runner := &fakeRunner{}
	cfg := testsupport.NewConfig(t)
	client := NewClient(cfg, runner, nil)

	ok, message := client.DisableDiscovery(context.Background())
	if !ok {
		t.Fatalf("DisableDiscovery failed: %q", message)
	}

	data, err := os.ReadFile(cfg.Service.DiscoveryStagingPath)
	if err != nil {
		t.Fatalf("staging file not written: %v", err)
	}
	content := string(data)
	for _, directive := range []string{"Browsing Off", "BrowseRemoteProtocols none", "CreateIPPPrinterQueues No"} {
		if !strings.Contains(content, directive) {
			t.Fatalf("staged config missing %q:\n%s", directive, content)
		}
	}

	if got := runner.callCount("systemctl", "stop", cfg.Service.DiscoveryService); got != 1 {
		t.Fatalf("expected helper stop, got %d calls", got)
	}
	if got := runner.callCount("systemctl", "disable", cfg.Service.DiscoveryService); got != 1 {
		t.Fatalf("expected helper disable, got %d calls", got)
	}
	if got := runner.callCount("cp", cfg.Service.DiscoveryStagingPath, cfg.Service.DiscoveryConfigPath); got != 1 {
		t.Fatalf("expected staged copy into place, got %d calls", got)
	}
}

func TestDisableDiscoveryCopyFailure(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if req.Name == "cp" {
			return cmdexec.Result{Stderr: "cp: cannot create regular file"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	ok, message := client.DisableDiscovery(context.Background())
	if ok {
		t.Fatal("expected failure when install copy fails")
	}
	if !strings.Contains(message, "install discovery config") {
		t.Fatalf("unexpected message %q", message)
	}
}
