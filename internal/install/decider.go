package install

import (
	"context"

	"printwatch/internal/cups"
)

// DriverDecider chooses a driver URI for a model that has no predefined
// mapping. Candidates are the catalog matches for the model keyword, possibly
// empty. Returning ok=false declines the choice and lets the workflow fall
// back to the generic driver.
type DriverDecider interface {
	ChooseDriver(ctx context.Context, model string, candidates []cups.DriverRecord) (string, bool)
}

// DeciderFunc adapts a function to the DriverDecider interface.
type DeciderFunc func(ctx context.Context, model string, candidates []cups.DriverRecord) (string, bool)

// ChooseDriver implements DriverDecider.
func (f DeciderFunc) ChooseDriver(ctx context.Context, model string, candidates []cups.DriverRecord) (string, bool) {
	return f(ctx, model, candidates)
}

// AutoDecline is the headless default: it never picks a driver, so unmapped
// models always get the generic fallback.
func AutoDecline() DriverDecider {
	return DeciderFunc(func(context.Context, string, []cups.DriverRecord) (string, bool) {
		return "", false
	})
}
