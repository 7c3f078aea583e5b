package cups

import (
	"context"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
)

func TestHealthInactiveShortCircuits(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if req.Name == "systemctl" {
			return cmdexec.Result{Stderr: "inactive"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if health.Active {
		t.Fatal("expected inactive service")
	}
	if health.Err == "" {
		t.Fatal("expected error message for inactive service")
	}
	if got := runner.callCount("lpstat"); got != 0 {
		t.Fatalf("expected no lpstat calls after inactive result, got %d", got)
	}
}

func TestHealthProbeTimeoutMarksHung(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		switch commandLine(req) {
		case "systemctl is-active cups":
			return cmdexec.Result{ExitedZero: true}
		case "lpstat -r":
			return timeoutResult(3 * time.Second)
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if !health.Active {
		t.Fatal("service should still be active")
	}
	if !health.Hung {
		t.Fatal("expected hung=true after probe timeout")
	}
	if got := runner.callCount("lpstat", "-p"); got != 0 {
		t.Fatalf("expected no queue listing after hung detection, got %d calls", got)
	}
	if got := runner.callCount("lpstat", "-o"); got != 0 {
		t.Fatalf("expected no stuck-job query after hung detection, got %d calls", got)
	}
}

func TestHealthProbeFailureMarksHung(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if commandLine(req) == "lpstat -r" {
			return cmdexec.Result{Stdout: "scheduler is not running"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if !health.Hung {
		t.Fatal("expected hung=true after probe failure")
	}
}

func TestHealthGathersQueuesAndStuckJobs(t *testing.T) {
	listing := "printer Office is idle.  enabled since Mon\n" +
		"printer Kitchen now printing Kitchen-42.  Processing page 1\n" +
		"printer Broken disabled since Tue -\n\tstopped\n"
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		switch commandLine(req) {
		case "lpstat -p":
			return cmdexec.Result{ExitedZero: true, Stdout: listing}
		case "lpstat -o":
			return cmdexec.Result{ExitedZero: true, Stdout: "Kitchen-42 user 1024 Mon\nKitchen-43 user 2048 Mon\n"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if !health.Healthy() {
		t.Fatalf("expected healthy snapshot, got %+v", health)
	}
	if health.TotalPrinters != 3 {
		t.Fatalf("expected 3 printers, got %d", health.TotalPrinters)
	}
	if health.ProblemPrinters != 1 {
		t.Fatalf("expected 1 problem printer, got %d", health.ProblemPrinters)
	}
	if health.StuckJobs != 2 {
		t.Fatalf("expected 2 stuck jobs, got %d", health.StuckJobs)
	}
}

func TestHealthListingTimeoutKeepsPartialResult(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if commandLine(req) == "lpstat -p" {
			return timeoutResult(3 * time.Second)
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if !health.Hung {
		t.Fatal("expected hung=true after listing timeout")
	}
	if health.TotalPrinters != 0 {
		t.Fatalf("expected zero printers, got %d", health.TotalPrinters)
	}
}

func TestHealthStuckJobFailureIsSwallowed(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		if commandLine(req) == "lpstat -o" {
			return cmdexec.Result{Stderr: "lpstat: Bad file descriptor"}
		}
		return cmdexec.Result{ExitedZero: true}
	}}
	client := newTestClient(t, runner)

	health := client.Health(context.Background())
	if health.Err != "" {
		t.Fatalf("stuck-job failure should not surface: %q", health.Err)
	}
	if health.StuckJobs != 0 {
		t.Fatalf("expected zero stuck jobs, got %d", health.StuckJobs)
	}
}

func TestStateHasIssues(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{"", false},
		{"is idle.  enabled since Mon", false},
		{"now printing Office-1.  Processing page 3", true},
		{"PROCESSING", true},
		{"disabled since Tue - stopped", true},
		{"Stopped", true},
		{"stoPPed halfway", true},
		{"ready and waiting", false},
		{"proc essing", false},
	}
	for _, tc := range tests {
		t.Run(tc.state, func(t *testing.T) {
			if got := StateHasIssues(tc.state); got != tc.want {
				t.Errorf("StateHasIssues(%q) = %v, want %v", tc.state, got, tc.want)
			}
		})
	}
}

func TestParseQueueListingSkipsMalformedLines(t *testing.T) {
	output := "system default destination: Office\nprinter\nprinter Office is idle\n"
	printers := ParseQueueListing(output)
	if len(printers) != 1 {
		t.Fatalf("expected 1 printer, got %d", len(printers))
	}
	if printers[0].Name != "Office" {
		t.Fatalf("unexpected printer name %q", printers[0].Name)
	}
	if printers[0].State != "is idle" {
		t.Fatalf("unexpected state %q", printers[0].State)
	}
}
