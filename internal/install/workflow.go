package install

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"printwatch/internal/cmdexec"
	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/logging"
)

// Driver sources reported on install results and history events.
const (
	SourcePredefined = "predefined"
	SourceDecider    = "decider"
	SourceGeneric    = "generic"
	SourceExplicit   = "explicit"
)

// Catalog searches the installable driver database.
type Catalog interface {
	SearchDrivers(ctx context.Context, keyword string) ([]cups.DriverRecord, error)
}

// Recorder persists install outcomes. history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, event history.Event) error
}

// Result describes a completed installation.
type Result struct {
	Printer string `json:"printer"`
	Model   string `json:"model"`
	Driver  string `json:"driver"`
	Source  string `json:"source"`
	Created bool   `json:"created"`
	Message string `json:"message"`
}

// Workflow drives queue installation end to end.
type Workflow struct {
	cfg      *config.Config
	runner   cmdexec.Runner
	catalog  Catalog
	decider  DriverDecider
	recorder Recorder
	logger   *slog.Logger

	sleep         func(context.Context, time.Duration)
	correlationID func() string
}

// New constructs a Workflow. A nil runner falls back to the exec-backed
// runner, a nil decider to the auto-decline default; catalog and recorder
// may be nil when search or persistence is unavailable.
func New(cfg *config.Config, runner cmdexec.Runner, catalog Catalog, decider DriverDecider, recorder Recorder, logger *slog.Logger) *Workflow {
	if runner == nil {
		runner = cmdexec.New()
	}
	if decider == nil {
		decider = AutoDecline()
	}
	return &Workflow{
		cfg:           cfg,
		runner:        runner,
		catalog:       catalog,
		decider:       decider,
		recorder:      recorder,
		logger:        logging.NewComponentLogger(logger, "install"),
		sleep:         sleepContext,
		correlationID: uuid.NewString,
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

// Install selects a driver for the model and applies it. The queue name is
// derived from the model; an empty model is rejected before any subprocess
// runs.
func (w *Workflow) Install(ctx context.Context, model string) (Result, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Result{}, cups.Wrap(cups.ErrNotFound, "install", "empty printer model", nil)
	}

	driver, source := w.selectDriver(ctx, model)
	return w.apply(ctx, model, driver, source)
}

// InstallWithDriver applies an explicitly chosen driver URI, bypassing
// selection.
func (w *Workflow) InstallWithDriver(ctx context.Context, model, driver string) (Result, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Result{}, cups.Wrap(cups.ErrNotFound, "install", "empty printer model", nil)
	}
	driver = strings.TrimSpace(driver)
	if driver == "" {
		return Result{}, cups.Wrap(cups.ErrNotFound, "install", "empty driver uri", nil)
	}
	return w.apply(ctx, model, driver, SourceExplicit)
}

// selectDriver resolves the driver URI for a model. A predefined mapping
// wins outright and skips the catalog search entirely.
func (w *Workflow) selectDriver(ctx context.Context, model string) (string, string) {
	if driver, ok := w.cfg.Drivers.Predefined[model]; ok {
		w.logger.Info("using predefined driver",
			logging.String(logging.FieldModel, model),
			logging.String(logging.FieldDriver, driver),
		)
		return driver, SourcePredefined
	}

	var candidates []cups.DriverRecord
	if w.catalog != nil {
		var err error
		candidates, err = w.catalog.SearchDrivers(ctx, model)
		if err != nil {
			w.logger.Warn("driver search failed, continuing without candidates",
				logging.String(logging.FieldModel, model),
				logging.Error(err),
			)
			candidates = nil
		}
	}

	if driver, ok := w.decider.ChooseDriver(ctx, model, candidates); ok && strings.TrimSpace(driver) != "" {
		return driver, SourceDecider
	}

	w.logger.Info("falling back to generic driver",
		logging.String(logging.FieldModel, model),
		logging.Int("candidates", len(candidates)),
	)
	return w.cfg.Drivers.GenericURI, SourceGeneric
}

// apply implements the driver change: cancel outstanding jobs, probe for an
// existing queue, create or update it, then re-enable and accept.
func (w *Workflow) apply(ctx context.Context, model, driver, source string) (Result, error) {
	queue := cups.DeriveQueueName(model)
	result := Result{Printer: queue, Model: model, Driver: driver, Source: source}

	w.runPrivileged(ctx, w.cfg.CheckTimeout(), "cancel", "-a", queue)

	probe := w.run(ctx, w.cfg.CheckTimeout(), "lpstat", "-p", queue)
	exists := probe.ExitedZero
	result.Created = !exists

	var admin cmdexec.Result
	if exists {
		admin = w.runPrivileged(ctx, w.cfg.InstallTimeout(), "lpadmin", "-p", queue, "-m", driver, "-E")
	} else {
		admin = w.runPrivileged(ctx, w.cfg.InstallTimeout(), "lpadmin", "-p", queue, "-v", "usb://", "-E", "-m", driver)
	}
	if !admin.ExitedZero {
		detail := admin.Output()
		w.record(ctx, queue, fmt.Sprintf("%s (%s): %s", driver, source, detail), false)
		if admin.TimedOut() {
			return result, cups.Wrap(cups.ErrTimeout, "configure queue", detail, nil)
		}
		return result, cups.Wrap(cups.ErrCommandFailed, "configure queue", detail, nil)
	}

	w.runPrivileged(ctx, w.cfg.CheckTimeout(), "cupsenable", queue)
	w.runPrivileged(ctx, w.cfg.CheckTimeout(), "cupsaccept", queue)
	w.sleep(ctx, w.cfg.InstallSettle())

	verb := "updated"
	if result.Created {
		verb = "created"
	}
	result.Message = fmt.Sprintf("queue %q %s with driver %s", queue, verb, driver)

	w.logger.Info("printer installed",
		logging.String(logging.FieldPrinter, queue),
		logging.String(logging.FieldModel, model),
		logging.String(logging.FieldDriver, driver),
		logging.String("source", source),
		logging.Bool("created", result.Created),
	)
	w.record(ctx, queue, fmt.Sprintf("%s (%s)", driver, source), true)
	return result, nil
}

// record persists a history event best-effort; persistence failures are
// logged, never surfaced.
func (w *Workflow) record(ctx context.Context, printer, detail string, success bool) {
	if w.recorder == nil {
		return
	}
	event := history.Event{
		CorrelationID: w.correlationID(),
		Kind:          history.KindInstall,
		Printer:       printer,
		Detail:        detail,
		Success:       success,
	}
	if err := w.recorder.Record(ctx, event); err != nil {
		w.logger.Warn("history record failed",
			logging.String(logging.FieldPrinter, printer),
			logging.Error(err),
		)
	}
}

func (w *Workflow) run(ctx context.Context, timeout time.Duration, name string, args ...string) cmdexec.Result {
	return w.runner.Run(ctx, cmdexec.Request{Name: name, Args: args, Timeout: timeout})
}

func (w *Workflow) runPrivileged(ctx context.Context, timeout time.Duration, name string, args ...string) cmdexec.Result {
	prefix := w.cfg.PrivilegeArgs()
	if len(prefix) == 0 {
		return w.run(ctx, timeout, name, args...)
	}
	full := make([]string, 0, len(prefix)+len(args))
	full = append(full, prefix[1:]...)
	full = append(full, name)
	full = append(full, args...)
	return w.run(ctx, timeout, prefix[0], full...)
}
