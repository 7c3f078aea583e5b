package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Request describes a single external command invocation.
type Request struct {
	Name    string
	Args    []string
	Input   string
	Timeout time.Duration
}

// Result is the uniform outcome shape for every invocation. A timed-out or
// unstartable command reports ExitedZero=false with an explanatory Stderr;
// Run itself never fails.
type Result struct {
	ExitedZero bool
	Stdout     string
	Stderr     string
}

// TimedOut reports whether the result carries the synthetic timeout message.
func (r Result) TimedOut() bool {
	return !r.ExitedZero && strings.Contains(r.Stderr, "timed out after")
}

// Output returns stderr when present, stdout otherwise. Matches how CUPS
// tools report failures: lpadmin writes to stderr, lpstat to stdout.
func (r Result) Output() string {
	if strings.TrimSpace(r.Stderr) != "" {
		return strings.TrimSpace(r.Stderr)
	}
	return strings.TrimSpace(r.Stdout)
}

// Runner executes external commands with bounded timeouts.
type Runner interface {
	Run(ctx context.Context, req Request) Result
}

// New returns the production Runner backed by os/exec.
func New() Runner {
	return execRunner{}
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, req Request) Result {
	runCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, req.Name, req.Args...) //nolint:gosec
	if req.Input != "" {
		cmd.Stdin = strings.NewReader(req.Input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		ExitedZero: err == nil,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
	}

	if err == nil {
		return result
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.Stderr = fmt.Sprintf("timed out after %gs", req.Timeout.Seconds())
		return result
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) && strings.TrimSpace(result.Stderr) == "" {
		// Start failure (binary missing, permission denied): surface the
		// error text where stderr would normally carry it.
		result.Stderr = err.Error()
	}
	return result
}
