package cups

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"printwatch/internal/cmdexec"
	"printwatch/internal/testsupport"
)

// fakeRunner records every invocation and answers from a respond function.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []cmdexec.Request
	respond func(req cmdexec.Request) cmdexec.Result
}

func (f *fakeRunner) Run(_ context.Context, req cmdexec.Request) cmdexec.Result {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return cmdexec.Result{ExitedZero: true}
	}
	return f.respond(req)
}

func (f *fakeRunner) callCount(name string, args ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call.Name != name {
			continue
		}
		if len(args) > 0 && !strings.HasPrefix(strings.Join(call.Args, " "), strings.Join(args, " ")) {
			continue
		}
		count++
	}
	return count
}

func commandLine(req cmdexec.Request) string {
	if len(req.Args) == 0 {
		return req.Name
	}
	return req.Name + " " + strings.Join(req.Args, " ")
}

func newTestClient(t *testing.T, runner *fakeRunner, opts ...testsupport.ConfigOption) *Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	client := NewClient(cfg, runner, nil)
	client.sleep = func(context.Context, time.Duration) {}
	return client
}

func timeoutResult(timeout time.Duration) cmdexec.Result {
	return cmdexec.Result{Stderr: "timed out after " + timeout.String()}
}
