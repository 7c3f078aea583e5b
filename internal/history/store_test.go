package history

import (
	"context"
	"testing"
	"time"

	"printwatch/internal/testsupport"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	events := []Event{
		{CorrelationID: "a", Kind: KindFix, Detail: "5 steps", Success: true},
		{CorrelationID: "b", Kind: KindInstall, Printer: "Thermal_80", Detail: "RongtaPos/Printer80.ppd", Success: true},
		{CorrelationID: "c", Kind: KindTestPrint, Printer: "Thermal_80", Success: false},
	}
	for _, event := range events {
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	listed, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(listed))
	}
	// Newest first.
	if listed[0].Kind != KindTestPrint || listed[2].Kind != KindFix {
		t.Fatalf("unexpected order: %v, %v", listed[0].Kind, listed[2].Kind)
	}
	if listed[1].Printer != "Thermal_80" || listed[1].Detail != "RongtaPos/Printer80.ppd" {
		t.Fatalf("install event mangled: %+v", listed[1])
	}
	if listed[0].Success {
		t.Fatal("failed test print recorded as success")
	}
	if listed[0].CreatedAt.IsZero() {
		t.Fatal("expected a created_at stamp")
	}
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, Event{Kind: KindFix, Success: true}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	listed, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 events, got %d", len(listed))
	}
}

func TestRecordRequiresKind(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), Event{Detail: "missing kind"}); err == nil {
		t.Fatal("expected error for event without kind")
	}
}

func TestRecordKeepsExplicitTimestamp(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := store.Record(ctx, Event{Kind: KindDelete, CreatedAt: stamp}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	listed, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !listed[0].CreatedAt.Equal(stamp) {
		t.Fatalf("timestamp rewritten: got %v, want %v", listed[0].CreatedAt, stamp)
	}
}

func TestPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := store.Record(ctx, Event{Kind: KindInstall, Success: true}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	removed, err := store.Prune(ctx, 3)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 7 {
		t.Fatalf("expected 7 removed, got %d", removed)
	}
	listed, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(listed))
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(context.Background(), Event{Kind: KindFix, Success: true}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	listed, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 event after reopen, got %d", len(listed))
	}
}
