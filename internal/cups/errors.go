package cups

import (
	"errors"
	"fmt"
	"strings"

	"printwatch/internal/cmdexec"
)

var (
	// ErrUnavailable marks failures caused by the print service being inactive.
	ErrUnavailable = errors.New("service unavailable")
	// ErrUnresponsive marks failures where the service is active but not answering.
	ErrUnresponsive = errors.New("service unresponsive")
	// ErrCommandFailed marks non-zero exits from an external tool.
	ErrCommandFailed = errors.New("command failed")
	// ErrTimeout marks bounded calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound marks a missing queue or driver.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "cups failure"
	}
	if marker == nil {
		marker = ErrCommandFailed
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify converts a failed command result into a tagged error. Timeouts
// carry the synthetic stderr message from cmdexec; scheduler reachability is
// inferred from the standard CUPS client error strings ("Unable to connect
// to server", ECONNREFUSED text, IPP server-error status codes).
func Classify(operation string, result cmdexec.Result) error {
	output := result.Output()
	lower := strings.ToLower(output)
	switch {
	case result.TimedOut():
		return Wrap(ErrTimeout, operation, result.Stderr, nil)
	case strings.Contains(lower, "unable to connect") || strings.Contains(lower, "connection refused"):
		return Wrap(ErrUnavailable, operation, output, nil)
	case strings.Contains(lower, "server-error"):
		return Wrap(ErrUnresponsive, operation, output, nil)
	default:
		return Wrap(ErrCommandFailed, operation, output, nil)
	}
}
