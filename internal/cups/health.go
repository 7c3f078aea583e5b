package cups

import (
	"context"
	"strings"

	"printwatch/internal/logging"
)

// QueueSummary is one configured queue as reported by lpstat -p.
type QueueSummary struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	HasIssues bool   `json:"has_issues"`
}

// ServiceHealth is a point-in-time snapshot of the print service. It is
// derived fresh on every check and never persisted.
type ServiceHealth struct {
	Active          bool           `json:"active"`
	Hung            bool           `json:"hung"`
	StuckJobs       int            `json:"stuck_jobs"`
	Printers        []QueueSummary `json:"printers"`
	TotalPrinters   int            `json:"total_printers"`
	ProblemPrinters int            `json:"problem_printers"`
	Err             string         `json:"error,omitempty"`
}

// Healthy reports whether the service needs no attention.
func (h ServiceHealth) Healthy() bool {
	return h.Active && !h.Hung
}

// StateHasIssues reports whether a queue state line indicates a problem.
func StateHasIssues(state string) bool {
	lower := strings.ToLower(state)
	return strings.Contains(lower, "processing") || strings.Contains(lower, "stopped")
}

// Health runs the bounded check sequence against the live service. Checks
// are sequential and fail fast: once the scheduler looks hung no further
// queries are attempted, so the probe itself cannot pile timeouts onto an
// unresponsive daemon.
func (c *Client) Health(ctx context.Context) ServiceHealth {
	health := ServiceHealth{Printers: []QueueSummary{}}
	timeout := c.cfg.CheckTimeout()

	result := c.run(ctx, timeout, "systemctl", "is-active", c.cfg.Service.Name)
	health.Active = result.ExitedZero
	if !health.Active {
		health.Err = "print service not active"
		return health
	}

	result = c.run(ctx, timeout, "lpstat", "-r")
	if !result.ExitedZero {
		health.Hung = true
		if result.TimedOut() {
			health.Err = "scheduler probe timed out"
		} else {
			health.Err = "scheduler not responding"
		}
		return health
	}

	result = c.run(ctx, timeout, "lpstat", "-p")
	switch {
	case result.ExitedZero:
		health.Printers = ParseQueueListing(result.Stdout)
		health.TotalPrinters = len(health.Printers)
		for _, printer := range health.Printers {
			if printer.HasIssues {
				health.ProblemPrinters++
			}
		}
	case result.TimedOut():
		health.Hung = true
		health.Err = "queue listing timed out"
	}

	// Stuck-job count is best-effort: a failure here is logged but never
	// surfaced as a top-level error.
	result = c.run(ctx, timeout, "lpstat", "-o")
	if result.ExitedZero {
		health.StuckJobs = countNonEmptyLines(result.Stdout)
	} else {
		c.logger.Debug("stuck job count unavailable",
			logging.String("detail", result.Output()),
		)
	}

	return health
}

// ParseQueueListing converts lpstat -p output into queue summaries. Lines
// look like "printer Office_Printer is idle.  enabled since ...".
func ParseQueueListing(output string) []QueueSummary {
	printers := []QueueSummary{}
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(line, "printer") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		state := ""
		if len(fields) > 2 {
			state = strings.Join(fields[2:], " ")
		}
		printers = append(printers, QueueSummary{
			Name:      fields[1],
			State:     state,
			HasIssues: StateHasIssues(state),
		})
	}
	return printers
}

func countNonEmptyLines(output string) int {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}
