package cups

import (
	"context"
	"fmt"
	"strings"
	"time"

	"printwatch/internal/logging"
)

// QueueDetail carries the per-queue attributes parsed from lpstat -l output.
// Missing attributes are empty strings, not errors.
type QueueDetail struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	DeviceURI   string `json:"device_uri"`
	ActiveJobs  int    `json:"active_jobs"`
}

// Printer is a queue summary enriched with detail attributes for listings.
type Printer struct {
	QueueSummary
	Description string `json:"description"`
	Location    string `json:"location"`
	DeviceURI   string `json:"device_uri"`
}

// Printers enumerates configured queues with their detail attributes. Each
// queue costs an extra detail lookup, so this is O(n) subprocess calls; n is
// the local printer count and stays small.
func (c *Client) Printers(ctx context.Context) ([]Printer, error) {
	result := c.run(ctx, c.cfg.CheckTimeout(), "lpstat", "-p")
	if !result.ExitedZero {
		return nil, Classify("list printers", result)
	}

	summaries := ParseQueueListing(result.Stdout)
	printers := make([]Printer, 0, len(summaries))
	for _, summary := range summaries {
		detail := c.details(ctx, summary.Name)
		printers = append(printers, Printer{
			QueueSummary: summary,
			Description:  detail.Description,
			Location:     detail.Location,
			DeviceURI:    detail.DeviceURI,
		})
	}
	return printers, nil
}

// Details fetches the attributes of a single queue.
func (c *Client) Details(ctx context.Context, name string) (QueueDetail, error) {
	result := c.run(ctx, c.cfg.CheckTimeout(), "lpstat", "-p", name)
	if !result.ExitedZero {
		return QueueDetail{}, Wrap(ErrNotFound, "printer details", fmt.Sprintf("queue %q", name), nil)
	}
	return c.details(ctx, name), nil
}

// details gathers attributes best-effort; a failed lookup yields empty fields.
func (c *Client) details(ctx context.Context, name string) QueueDetail {
	detail := QueueDetail{Name: name}
	timeout := c.cfg.CheckTimeout()

	result := c.run(ctx, timeout, "lpstat", "-p", name, "-l")
	if result.ExitedZero {
		for _, line := range strings.Split(result.Stdout, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "Description:"):
				detail.Description = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
			case strings.HasPrefix(line, "Location:"):
				detail.Location = strings.TrimSpace(strings.TrimPrefix(line, "Location:"))
			case strings.HasPrefix(line, "DeviceURI:"):
				detail.DeviceURI = strings.TrimSpace(strings.TrimPrefix(line, "DeviceURI:"))
			}
		}
	}

	result = c.run(ctx, timeout, "lpstat", "-o", name)
	if result.ExitedZero {
		detail.ActiveJobs = countNonEmptyLines(result.Stdout)
	}
	return detail
}

// submitMethod is one way of handing a job to the scheduler. Different
// queue/driver combinations accept different submission paths, so TestPrint
// tries each in order and returns on first success.
type submitMethod struct {
	label string
	name  string
	args  []string
}

func (c *Client) submitMethods(printer string) []submitMethod {
	return []submitMethod{
		{label: "lp", name: "lp", args: []string{"-d", printer}},
		{label: "lpr", name: "lpr", args: []string{"-P", printer}},
		{label: "lp raw", name: "lp", args: []string{"-d", printer, "-o", "raw"}},
	}
}

// TestPrint re-enables the queue and submits a small test page, trying each
// submit method in order. A nonexistent queue fails fast before any submit.
func (c *Client) TestPrint(ctx context.Context, printer string) (bool, string) {
	opTimeout := c.cfg.OperationTimeout()

	c.runPrivileged(ctx, c.cfg.CheckTimeout(), "cupsenable", printer)
	c.runPrivileged(ctx, c.cfg.CheckTimeout(), "cupsaccept", printer)

	result := c.run(ctx, c.cfg.CheckTimeout(), "lpstat", "-p", printer)
	if !result.ExitedZero {
		return false, fmt.Sprintf("printer %q not found", printer)
	}

	c.sleep(ctx, c.cfg.TestPrintSettle())

	page := testPage(printer, time.Now())
	for _, method := range c.submitMethods(printer) {
		c.logger.Debug("trying submit method",
			logging.String(logging.FieldPrinter, printer),
			logging.String("method", method.label),
		)
		result := c.runInput(ctx, opTimeout, page, method.name, method.args...)
		if result.ExitedZero {
			return true, fmt.Sprintf("test page sent via %s", method.label)
		}
	}
	return false, "all print methods failed"
}

func testPage(printer string, now time.Time) string {
	var b strings.Builder
	b.WriteString("Printer Test Page\n")
	b.WriteString("===================\n")
	fmt.Fprintf(&b, "Printer: %s\n", printer)
	fmt.Fprintf(&b, "Time: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString("===================\n")
	b.WriteString("This is a test page.\n")
	b.WriteString("If you can read this, printing works!\n")
	return b.String()
}

// Delete cancels outstanding jobs for the queue and removes its definition.
func (c *Client) Delete(ctx context.Context, printer string) (bool, string) {
	c.runPrivileged(ctx, c.cfg.CheckTimeout(), "cancel", "-a", printer)
	c.sleep(ctx, time.Second)

	result := c.runPrivileged(ctx, c.cfg.OperationTimeout(), "lpadmin", "-x", printer)
	if !result.ExitedZero {
		return false, fmt.Sprintf("failed to delete printer: %s", result.Output())
	}
	return true, fmt.Sprintf("printer %q deleted", printer)
}
