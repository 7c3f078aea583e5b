package cups

import (
	"context"
	"log/slog"
	"time"

	"printwatch/internal/cmdexec"
	"printwatch/internal/config"
	"printwatch/internal/logging"
)

// Client exposes the CUPS operations printwatch needs. It holds no state
// about the print system; every call recomputes from the live installation.
type Client struct {
	cfg    *config.Config
	runner cmdexec.Runner
	logger *slog.Logger

	// sleep is replaceable in tests so settle delays do not slow suites down.
	sleep func(context.Context, time.Duration)
}

// NewClient constructs a Client. A nil runner falls back to the production
// exec-backed runner; a nil logger is replaced with a no-op logger.
func NewClient(cfg *config.Config, runner cmdexec.Runner, logger *slog.Logger) *Client {
	if runner == nil {
		runner = cmdexec.New()
	}
	return &Client{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewComponentLogger(logger, "cups"),
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (c *Client) run(ctx context.Context, timeout time.Duration, name string, args ...string) cmdexec.Result {
	return c.runner.Run(ctx, cmdexec.Request{Name: name, Args: args, Timeout: timeout})
}

func (c *Client) runInput(ctx context.Context, timeout time.Duration, input, name string, args ...string) cmdexec.Result {
	return c.runner.Run(ctx, cmdexec.Request{Name: name, Args: args, Input: input, Timeout: timeout})
}

// runPrivileged prepends the configured privilege command (sudo by default)
// so service control and queue administration run with elevated rights.
func (c *Client) runPrivileged(ctx context.Context, timeout time.Duration, name string, args ...string) cmdexec.Result {
	prefix := c.cfg.PrivilegeArgs()
	if len(prefix) == 0 {
		return c.run(ctx, timeout, name, args...)
	}
	full := make([]string, 0, len(prefix)+len(args))
	full = append(full, prefix[1:]...)
	full = append(full, name)
	full = append(full, args...)
	return c.run(ctx, timeout, prefix[0], full...)
}
