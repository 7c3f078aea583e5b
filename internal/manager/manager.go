package manager

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"printwatch/internal/config"
	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/install"
	"printwatch/internal/logging"
)

// ErrStopped is returned for requests made after the manager shut down.
var ErrStopped = errors.New("manager stopped")

// poolBacklog bounds how many tasks may queue ahead of the workers.
const poolBacklog = 16

// RuntimeInfo carries daemon-owned paths surfaced through Status.
type RuntimeInfo struct {
	LockPath   string
	SocketPath string
}

// Status is the daemon-level view served over IPC.
type Status struct {
	Running        bool                `json:"running"`
	PID            int                 `json:"pid"`
	LockPath       string              `json:"lock_path"`
	SocketPath     string              `json:"socket_path"`
	HistoryDBPath  string              `json:"history_db_path"`
	WatcherRunning bool                `json:"watcher_running"`
	StartedAt      time.Time           `json:"started_at"`
	Health         *cups.ServiceHealth `json:"health,omitempty"`
}

type searchOutcome struct {
	records []cups.DriverRecord
	err     error
}

type searchRequest struct {
	keyword string
	reply   chan searchOutcome
}

type pendingSearch struct {
	keyword string
	waiters []chan searchOutcome
}

type installOutcome struct {
	result install.Result
	err    error
}

type installRequest struct {
	model  string
	driver string
	reply  chan installOutcome // nil for fire-and-forget submissions
}

type installDone struct {
	queue   string
	outcome installOutcome
}

type fixOutcome struct {
	fixed bool
	steps []string
}

// Manager owns the coordination loop and the worker pool.
type Manager struct {
	cfg      *config.Config
	client   *cups.Client
	workflow *install.Workflow
	store    *history.Store
	runtime  RuntimeInfo
	logger   *slog.Logger

	tasks chan func()

	healthReq  chan chan cups.ServiceHealth
	healthRes  chan cups.ServiceHealth
	searchReq  chan searchRequest
	installReq chan installRequest
	installRes chan installDone
	fixReq     chan chan fixOutcome
	fixRes     chan fixOutcome
	statusReq  chan chan Status

	quit chan struct{}
	wg   sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once

	ctx    context.Context
	cancel context.CancelFunc

	started        atomic.Bool
	watcherRunning atomic.Bool
	startedAt      time.Time
}

// New constructs a Manager. The store may be nil when history persistence is
// unavailable; everything else is required.
func New(cfg *config.Config, client *cups.Client, workflow *install.Workflow, store *history.Store, runtime RuntimeInfo, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		client:   client,
		workflow: workflow,
		store:    store,
		runtime:  runtime,
		logger:   logging.NewComponentLogger(logger, "manager"),

		tasks: make(chan func(), poolBacklog),

		healthReq:  make(chan chan cups.ServiceHealth),
		healthRes:  make(chan cups.ServiceHealth, poolBacklog),
		searchReq:  make(chan searchRequest),
		installReq: make(chan installRequest),
		installRes: make(chan installDone, poolBacklog),
		fixReq:     make(chan chan fixOutcome),
		fixRes:     make(chan fixOutcome, poolBacklog),
		statusReq:  make(chan chan Status),

		quit: make(chan struct{}),
	}
}

// Start launches the worker pool and the coordination loop. Safe to call
// once; later calls are no-ops.
func (m *Manager) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		m.ctx, m.cancel = context.WithCancel(ctx)
		m.startedAt = time.Now()
		m.started.Store(true)

		workers := m.cfg.Workflow.Workers
		if workers <= 0 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			m.wg.Add(1)
			go m.worker()
		}
		m.wg.Add(1)
		go m.loop()

		m.logger.Info("manager started", logging.Int("workers", workers))
	})
}

// Stop shuts the loop and workers down and waits for them to exit.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
		}
		close(m.quit)
		m.wg.Wait()
		m.started.Store(false)
		m.logger.Info("manager stopped")
	})
}

// SetWatcherRunning records whether the USB watcher is active, for Status.
func (m *Manager) SetWatcherRunning(running bool) {
	m.watcherRunning.Store(running)
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			return
		case fn := <-m.tasks:
			fn()
		}
	}
}

// submit hands a task to the pool, giving up when the manager stops.
func (m *Manager) submit(fn func()) bool {
	select {
	case m.tasks <- fn:
		return true
	case <-m.quit:
		return false
	}
}

// runBlocking executes fn on the worker pool and waits for completion.
func (m *Manager) runBlocking(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case m.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.quit:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.quit:
		return ErrStopped
	}
}

func (m *Manager) status(lastHealth *cups.ServiceHealth) Status {
	status := Status{
		Running:        true,
		PID:            os.Getpid(),
		LockPath:       m.runtime.LockPath,
		SocketPath:     m.runtime.SocketPath,
		WatcherRunning: m.watcherRunning.Load(),
		StartedAt:      m.startedAt,
		Health:         lastHealth,
	}
	if m.store != nil {
		status.HistoryDBPath = m.store.Path()
	}
	return status
}
