package cups

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
)

func driverCatalogOutput(lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "drv:///sample.drv/model%03d.ppd Sample Model %03d\n", i, i)
	}
	return b.String()
}

func TestSearchDriversFiltersCaseInsensitively(t *testing.T) {
	output := "drv:///sample.drv/generic.ppd Generic PostScript Printer\n" +
		"RongtaPos/Printer80.ppd Rongta 80mm Thermal Printer\n" +
		"lsb/usr/hp/hp-laserjet.ppd HP LaserJet Series\n"
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return cmdexec.Result{ExitedZero: true, Stdout: output}
	}}
	client := newTestClient(t, runner)

	records, err := client.SearchDrivers(context.Background(), "RONGTA")
	if err != nil {
		t.Fatalf("SearchDrivers: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 match, got %d", len(records))
	}
	if records[0].URI != "RongtaPos/Printer80.ppd" {
		t.Fatalf("unexpected URI %q", records[0].URI)
	}
	if records[0].Description != "Rongta 80mm Thermal Printer" {
		t.Fatalf("unexpected description %q", records[0].Description)
	}
}

func TestSearchDriversMatchesDescriptionToo(t *testing.T) {
	output := "drv:///a.ppd plain entry\ndrv:///b.ppd Thermal Receipt\n"
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return cmdexec.Result{ExitedZero: true, Stdout: output}
	}}
	client := newTestClient(t, runner)

	records, err := client.SearchDrivers(context.Background(), "receipt")
	if err != nil {
		t.Fatalf("SearchDrivers: %v", err)
	}
	if len(records) != 1 || records[0].URI != "drv:///b.ppd" {
		t.Fatalf("unexpected result %+v", records)
	}
}

func TestSearchDriversEmptyKeywordCapsAndKeepsOrder(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return cmdexec.Result{ExitedZero: true, Stdout: driverCatalogOutput(250)}
	}}
	client := newTestClient(t, runner)

	records, err := client.SearchDrivers(context.Background(), "")
	if err != nil {
		t.Fatalf("SearchDrivers: %v", err)
	}
	if len(records) != searchLimit {
		t.Fatalf("expected %d records, got %d", searchLimit, len(records))
	}
	for i, record := range records {
		want := fmt.Sprintf("drv:///sample.drv/model%03d.ppd", i)
		if record.URI != want {
			t.Fatalf("record %d out of order: got %q, want %q", i, record.URI, want)
		}
	}
}

func TestSearchDriversRefetchesEveryCall(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return cmdexec.Result{ExitedZero: true, Stdout: "drv:///a.ppd One\n"}
	}}
	client := newTestClient(t, runner)

	for i := 0; i < 3; i++ {
		if _, err := client.SearchDrivers(context.Background(), ""); err != nil {
			t.Fatalf("SearchDrivers: %v", err)
		}
	}
	if got := runner.callCount("lpinfo", "-m"); got != 3 {
		t.Fatalf("expected 3 lpinfo calls, got %d", got)
	}
}

func TestSearchDriversTimeout(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return timeoutResult(15 * time.Second)
	}}
	client := newTestClient(t, runner)

	_, err := client.SearchDrivers(context.Background(), "hp")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestSearchDriversCommandFailure(t *testing.T) {
	runner := &fakeRunner{respond: func(req cmdexec.Request) cmdexec.Result {
		return cmdexec.Result{Stderr: "lpinfo: Forbidden"}
	}}
	client := newTestClient(t, runner)

	_, err := client.SearchDrivers(context.Background(), "hp")
	if !errors.Is(err, ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}

func TestParseDriverLineWithoutDescription(t *testing.T) {
	record := parseDriverLine("everywhere")
	if record.URI != "everywhere" || record.Description != "" {
		t.Fatalf("unexpected record %+v", record)
	}
}
