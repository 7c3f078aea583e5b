package manager

import (
	"context"
	"fmt"
	"os"

	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/install"
)

// Health returns a fresh service snapshot. Concurrent callers share one
// probe; the call blocks until the shared probe completes.
func (m *Manager) Health(ctx context.Context) (cups.ServiceHealth, error) {
	reply := make(chan cups.ServiceHealth, 1)
	select {
	case m.healthReq <- reply:
	case <-ctx.Done():
		return cups.ServiceHealth{}, ctx.Err()
	case <-m.quit:
		return cups.ServiceHealth{}, ErrStopped
	}
	select {
	case health := <-reply:
		return health, nil
	case <-ctx.Done():
		return cups.ServiceHealth{}, ctx.Err()
	case <-m.quit:
		return cups.ServiceHealth{}, ErrStopped
	}
}

// SearchDrivers filters the driver database by keyword. Requests debounce;
// a later request made during the debounce window supersedes this one's
// keyword, and both callers receive the superseding result.
func (m *Manager) SearchDrivers(ctx context.Context, keyword string) ([]cups.DriverRecord, error) {
	reply := make(chan searchOutcome, 1)
	select {
	case m.searchReq <- searchRequest{keyword: keyword, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.quit:
		return nil, ErrStopped
	}
	select {
	case outcome := <-reply:
		return outcome.records, outcome.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.quit:
		return nil, ErrStopped
	}
}

// Fix runs the recovery pipeline. Concurrent callers share one run.
func (m *Manager) Fix(ctx context.Context) (bool, []string, error) {
	reply := make(chan fixOutcome, 1)
	select {
	case m.fixReq <- reply:
	case <-ctx.Done():
		return false, nil, ctx.Err()
	case <-m.quit:
		return false, nil, ErrStopped
	}
	select {
	case outcome := <-reply:
		return outcome.fixed, outcome.steps, nil
	case <-ctx.Done():
		return false, nil, ctx.Err()
	case <-m.quit:
		return false, nil, ErrStopped
	}
}

// Install configures a queue for the model, optionally with an explicit
// driver URI. An install already in flight for the same queue is joined, not
// duplicated.
func (m *Manager) Install(ctx context.Context, model, driver string) (install.Result, error) {
	reply := make(chan installOutcome, 1)
	select {
	case m.installReq <- installRequest{model: model, driver: driver, reply: reply}:
	case <-ctx.Done():
		return install.Result{}, ctx.Err()
	case <-m.quit:
		return install.Result{}, ErrStopped
	}
	select {
	case outcome := <-reply:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return install.Result{}, ctx.Err()
	case <-m.quit:
		return install.Result{}, ErrStopped
	}
}

// SubmitInstall queues an install without waiting for the outcome. The USB
// watcher uses this path.
func (m *Manager) SubmitInstall(model string) bool {
	select {
	case m.installReq <- installRequest{model: model}:
		return true
	case <-m.quit:
		return false
	}
}

// Status reports the daemon-level view, including the latest health
// snapshot when one exists.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if !m.started.Load() {
		return Status{Running: false, PID: os.Getpid()}, nil
	}
	reply := make(chan Status, 1)
	select {
	case m.statusReq <- reply:
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-m.quit:
		return Status{}, ErrStopped
	}
	select {
	case status := <-reply:
		return status, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	case <-m.quit:
		return Status{}, ErrStopped
	}
}

// Printers lists configured queues with their detail attributes.
func (m *Manager) Printers(ctx context.Context) ([]cups.Printer, error) {
	var (
		printers []cups.Printer
		err      error
	)
	if rbErr := m.runBlocking(ctx, func() {
		printers, err = m.client.Printers(ctx)
	}); rbErr != nil {
		return nil, rbErr
	}
	return printers, err
}

// Describe fetches attributes for one queue.
func (m *Manager) Describe(ctx context.Context, name string) (cups.QueueDetail, error) {
	var (
		detail cups.QueueDetail
		err    error
	)
	if rbErr := m.runBlocking(ctx, func() {
		detail, err = m.client.Details(ctx, name)
	}); rbErr != nil {
		return cups.QueueDetail{}, rbErr
	}
	return detail, err
}

// TestPrint submits a test page to the queue and records the outcome.
func (m *Manager) TestPrint(ctx context.Context, name string) (bool, string, error) {
	var (
		sent    bool
		message string
	)
	if err := m.runBlocking(ctx, func() {
		sent, message = m.client.TestPrint(ctx, name)
		m.record(history.Event{
			Kind:    history.KindTestPrint,
			Printer: name,
			Detail:  message,
			Success: sent,
		})
	}); err != nil {
		return false, "", err
	}
	return sent, message, nil
}

// DeletePrinter removes a queue and records the outcome.
func (m *Manager) DeletePrinter(ctx context.Context, name string) (bool, string, error) {
	var (
		deleted bool
		message string
	)
	if err := m.runBlocking(ctx, func() {
		deleted, message = m.client.Delete(ctx, name)
		m.record(history.Event{
			Kind:    history.KindDelete,
			Printer: name,
			Detail:  message,
			Success: deleted,
		})
	}); err != nil {
		return false, "", err
	}
	return deleted, message, nil
}

// DisableDiscovery turns off the auto-discovery helper and records the
// outcome.
func (m *Manager) DisableDiscovery(ctx context.Context) (bool, string, error) {
	var (
		disabled bool
		message  string
	)
	if err := m.runBlocking(ctx, func() {
		disabled, message = m.client.DisableDiscovery(ctx)
		m.record(history.Event{
			Kind:    history.KindDiscovery,
			Detail:  message,
			Success: disabled,
		})
	}); err != nil {
		return false, "", err
	}
	return disabled, message, nil
}

// History lists recorded events, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]history.Event, error) {
	if m.store == nil {
		return nil, fmt.Errorf("history store unavailable")
	}
	return m.store.List(ctx, limit)
}
