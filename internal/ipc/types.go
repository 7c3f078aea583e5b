package ipc

import (
	"context"
	"path/filepath"

	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/install"
	"printwatch/internal/manager"
)

// SocketName is the daemon control socket filename inside the log dir.
const SocketName = "printwatch.sock"

// SocketPath resolves the control socket location for a configuration.
func SocketPath(cfg *config.Config) string {
	dir, err := config.ExpandPath(cfg.Paths.LogDir)
	if err != nil {
		dir = cfg.Paths.LogDir
	}
	return filepath.Join(dir, SocketName)
}

// Subsystem is the full print-subsystem capability the server exposes.
// *manager.Manager implements it.
type Subsystem interface {
	Status(ctx context.Context) (manager.Status, error)
	Health(ctx context.Context) (cups.ServiceHealth, error)
	Fix(ctx context.Context) (bool, []string, error)
	DisableDiscovery(ctx context.Context) (bool, string, error)
	Printers(ctx context.Context) ([]cups.Printer, error)
	Describe(ctx context.Context, name string) (cups.QueueDetail, error)
	TestPrint(ctx context.Context, name string) (bool, string, error)
	DeletePrinter(ctx context.Context, name string) (bool, string, error)
	SearchDrivers(ctx context.Context, keyword string) ([]cups.DriverRecord, error)
	Install(ctx context.Context, model, driver string) (install.Result, error)
	History(ctx context.Context, limit int) ([]history.Event, error)
}

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports the answering daemon's PID.
type PingResponse struct {
	PID int `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse carries the daemon-level status view.
type StatusResponse struct {
	Status manager.Status `json:"status"`
}

// HealthRequest triggers a health probe.
type HealthRequest struct{}

// HealthResponse carries a fresh service snapshot.
type HealthResponse struct {
	Health cups.ServiceHealth `json:"health"`
}

// FixRequest runs the recovery pipeline.
type FixRequest struct{}

// FixResponse reports the recovery outcome and step transcript.
type FixResponse struct {
	Fixed bool     `json:"fixed"`
	Steps []string `json:"steps"`
}

// DisableDiscoveryRequest turns off the auto-discovery helper.
type DisableDiscoveryRequest struct{}

// DisableDiscoveryResponse reports the outcome.
type DisableDiscoveryResponse struct {
	Disabled bool   `json:"disabled"`
	Message  string `json:"message"`
}

// PrinterListRequest enumerates configured queues.
type PrinterListRequest struct{}

// PrinterListResponse contains queue entries with detail attributes.
type PrinterListResponse struct {
	Printers []cups.Printer `json:"printers"`
}

// PrinterDescribeRequest fetches a single queue by name.
type PrinterDescribeRequest struct {
	Name string `json:"name"`
}

// PrinterDescribeResponse contains one queue's attributes.
type PrinterDescribeResponse struct {
	Detail cups.QueueDetail `json:"detail"`
}

// TestPrintRequest submits a test page to a queue.
type TestPrintRequest struct {
	Name string `json:"name"`
}

// TestPrintResponse reports the submission outcome.
type TestPrintResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// PrinterDeleteRequest removes a queue.
type PrinterDeleteRequest struct {
	Name string `json:"name"`
}

// PrinterDeleteResponse reports the removal outcome.
type PrinterDeleteResponse struct {
	Deleted bool   `json:"deleted"`
	Message string `json:"message"`
}

// DriverSearchRequest filters the driver database by keyword.
type DriverSearchRequest struct {
	Keyword string `json:"keyword"`
}

// DriverSearchResponse contains matching drivers in database order.
type DriverSearchResponse struct {
	Drivers []cups.DriverRecord `json:"drivers"`
}

// InstallRequest configures a queue for a model. Driver is optional; when
// empty the daemon selects one.
type InstallRequest struct {
	Model  string `json:"model"`
	Driver string `json:"driver,omitempty"`
}

// InstallResponse carries the completed install result.
type InstallResponse struct {
	Result install.Result `json:"result"`
}

// HistoryListRequest fetches recorded events. Limit <= 0 returns everything.
type HistoryListRequest struct {
	Limit int `json:"limit"`
}

// HistoryListResponse contains events newest first.
type HistoryListResponse struct {
	Events []history.Event `json:"events"`
}
