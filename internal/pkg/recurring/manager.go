package recurring

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/nordkorb/nordkorb/internal/pkg/env"
	"github.com/nordkorb/nordkorb/internal/pkg/metrics/counter"
)

// Manager runs the periodic parts of the recurring engine in-process: the
// daily due-cycle run and the stale-proposal expiry sweep. Deployments that
// drive the cycle via the external scheduler endpoint simply never start it.
type Manager struct {
	svc *Service

	cycleTicker *time.Ticker
	sweepTicker *time.Ticker
	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

// NewManager creates a manager for the given engine.
func NewManager(svc *Service) *Manager {
	return &Manager{svc: svc}
}

// Start launches the background tickers.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so the manager can be
	// restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[Recurring Manager] Starting background tasks")

	cycleInterval := durationFromEnv("RECURRING_CYCLE_INTERVAL_MINUTES", 60)
	sweepInterval := durationFromEnv("RECURRING_SWEEP_INTERVAL_MINUTES", 360)
	flushInterval := durationFromEnv("COUNTER_FLUSH_INTERVAL_MINUTES", 15)

	stopCh := m.stopCh

	m.cycleTicker = time.NewTicker(cycleInterval)
	m.wg.Add(1)
	go m.cycleWorker(stopCh)

	m.sweepTicker = time.NewTicker(sweepInterval)
	m.wg.Add(1)
	go m.sweepWorker(stopCh)

	m.flushTicker = time.NewTicker(flushInterval)
	m.wg.Add(1)
	go m.flushWorker(stopCh)

	log.Info("[Recurring Manager] Started successfully")
}

// Stop halts the background tickers and waits for workers to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Recurring Manager] Stopping background tasks...")

	if m.cycleTicker != nil {
		m.cycleTicker.Stop()
	}
	if m.sweepTicker != nil {
		m.sweepTicker.Stop()
	}
	if m.flushTicker != nil {
		m.flushTicker.Stop()
	}

	close(m.stopCh)
	m.stopCh = nil
	m.running = false

	m.wg.Wait()

	log.Info("[Recurring Manager] Stopped successfully")
}

func (m *Manager) cycleWorker(stopCh <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case <-m.cycleTicker.C:
			created, err := m.svc.RunDueCycle(context.Background(), time.Now())
			if err != nil {
				log.Errorf("[Recurring Manager] due cycle run failed: %v", err)
				continue
			}
			if created > 0 {
				log.Infof("[Recurring Manager] created %d proposals", created)
			}
		}
	}
}

func (m *Manager) sweepWorker(stopCh <-chan struct{}) {
	defer m.wg.Done()
	maxAgeDays := 14
	if v, err := strconv.Atoi(env.GetEnv("RECURRING_PROPOSAL_MAX_AGE_DAYS", "")); err == nil && v > 0 {
		maxAgeDays = v
	}
	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	for {
		select {
		case <-stopCh:
			return
		case <-m.sweepTicker.C:
			expired, err := m.svc.ExpireStaleProposals(time.Now(), maxAge)
			if err != nil {
				log.Errorf("[Recurring Manager] expiry sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Infof("[Recurring Manager] expired %d stale proposals", expired)
			}
		}
	}
}

// flushWorker drains the redis demand counters into the product table.
func (m *Manager) flushWorker(stopCh <-chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stopCh:
			return
		case <-m.flushTicker.C:
			if err := counter.FlushAll(); err != nil {
				log.Errorf("[Recurring Manager] counter flush failed: %v", err)
			}
		}
	}
}

func durationFromEnv(key string, defMinutes int) time.Duration {
	if v, err := strconv.Atoi(env.GetEnv(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return time.Duration(defMinutes) * time.Minute
}
