package manager

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"printwatch/internal/cups"
	"printwatch/internal/history"
	"printwatch/internal/logging"
)

// loop is the single owner of coordination state. Every mutation of the
// health snapshot, waiter lists, in-flight flags, and the pending search
// happens here.
func (m *Manager) loop() {
	defer m.wg.Done()

	interval := m.cfg.HealthInterval()
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	debounceArmed := false

	var (
		lastHealth       *cups.ServiceHealth
		healthWaiters    []chan cups.ServiceHealth
		healthInFlight   bool
		fixWaiters       []chan fixOutcome
		fixInFlight      bool
		pending          *pendingSearch
		installsInFlight = map[string][]chan installOutcome{}
	)

	// Startup probe so Status has a snapshot before the first tick.
	healthInFlight = m.dispatchHealth()

	for {
		select {
		case <-m.quit:
			return

		case <-ticker.C:
			if healthInFlight {
				m.logger.Debug("health tick coalesced")
				continue
			}
			healthInFlight = m.dispatchHealth()

		case reply := <-m.healthReq:
			healthWaiters = append(healthWaiters, reply)
			if !healthInFlight {
				healthInFlight = m.dispatchHealth()
			}

		case health := <-m.healthRes:
			healthInFlight = false
			snapshot := health
			lastHealth = &snapshot
			for _, waiter := range healthWaiters {
				waiter <- health
			}
			healthWaiters = nil
			if !health.Healthy() {
				m.logger.Warn("print service unhealthy",
					logging.Bool("active", health.Active),
					logging.Bool("hung", health.Hung),
					logging.String("detail", health.Err),
				)
			}

		case req := <-m.searchReq:
			if pending == nil {
				pending = &pendingSearch{}
			}
			pending.keyword = req.keyword
			pending.waiters = append(pending.waiters, req.reply)
			if debounceArmed && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(m.cfg.SearchDebounce())
			debounceArmed = true

		case <-debounce.C:
			debounceArmed = false
			if pending != nil {
				m.dispatchSearch(pending.keyword, pending.waiters)
				pending = nil
			}

		case reply := <-m.fixReq:
			fixWaiters = append(fixWaiters, reply)
			if !fixInFlight {
				fixInFlight = m.dispatchFix()
			}

		case outcome := <-m.fixRes:
			fixInFlight = false
			for _, waiter := range fixWaiters {
				waiter <- outcome
			}
			fixWaiters = nil

		case req := <-m.installReq:
			queue := cups.DeriveQueueName(strings.TrimSpace(req.model))
			if replies, busy := installsInFlight[queue]; busy {
				m.logger.Debug("install already in flight",
					logging.String(logging.FieldPrinter, queue),
				)
				if req.reply != nil {
					installsInFlight[queue] = append(replies, req.reply)
				}
				continue
			}
			var replies []chan installOutcome
			if req.reply != nil {
				replies = append(replies, req.reply)
			}
			installsInFlight[queue] = replies
			m.dispatchInstall(req.model, req.driver, queue)

		case done := <-m.installRes:
			replies := installsInFlight[done.queue]
			delete(installsInFlight, done.queue)
			for _, reply := range replies {
				reply <- done.outcome
			}
			if done.outcome.err != nil {
				m.logger.Warn("install failed",
					logging.String(logging.FieldPrinter, done.queue),
					logging.Error(done.outcome.err),
				)
			}

		case reply := <-m.statusReq:
			reply <- m.status(lastHealth)
		}
	}
}

func (m *Manager) dispatchHealth() bool {
	return m.submit(func() {
		health := m.client.Health(m.ctx)
		select {
		case m.healthRes <- health:
		case <-m.quit:
		}
	})
}

// dispatchSearch answers every collected waiter from the worker; the loop
// keeps no per-search state once a search is dispatched.
func (m *Manager) dispatchSearch(keyword string, waiters []chan searchOutcome) {
	m.submit(func() {
		records, err := m.client.SearchDrivers(m.ctx, keyword)
		outcome := searchOutcome{records: records, err: err}
		for _, waiter := range waiters {
			waiter <- outcome
		}
	})
}

func (m *Manager) dispatchFix() bool {
	return m.submit(func() {
		fixed, steps := m.client.Fix(m.ctx)
		m.record(history.Event{
			Kind:    history.KindFix,
			Detail:  strings.Join(steps, "\n"),
			Success: fixed,
		})
		select {
		case m.fixRes <- fixOutcome{fixed: fixed, steps: steps}:
		case <-m.quit:
		}
	})
}

func (m *Manager) dispatchInstall(model, driver, queue string) {
	m.submit(func() {
		var outcome installOutcome
		if driver != "" {
			outcome.result, outcome.err = m.workflow.InstallWithDriver(m.ctx, model, driver)
		} else {
			outcome.result, outcome.err = m.workflow.Install(m.ctx, model)
		}
		select {
		case m.installRes <- installDone{queue: queue, outcome: outcome}:
		case <-m.quit:
		}
	})
}

// record persists a history event best-effort from a worker goroutine.
func (m *Manager) record(event history.Event) {
	if m.store == nil {
		return
	}
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}
	if err := m.store.Record(m.ctx, event); err != nil {
		m.logger.Warn("history record failed", logging.Error(err))
	}
}
