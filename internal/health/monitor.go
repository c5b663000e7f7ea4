package health

import (
	"context"
	"sync"
	"time"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// StatProvider exposes the tracker's current per-backend stats.
type StatProvider interface {
	Snapshot() map[string]domain.BackendStat
}

// QueueLen reports how many recordings are waiting for recovery.
type QueueLen interface {
	Len(ctx context.Context) (int, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Health(ctx context.Context) error
}

// Backend status thresholds derived from the rolling success rate.
const (
	criticalSuccessRate = 0.3
	degradedSuccessRate = 0.6
	criticalFailures    = 5
)

// Monitor aggregates health status from the tracker, queue and store.
// Queue and database are optional; nil means the component is not
// deployed.
type Monitor struct {
	stats    StatProvider
	queue    QueueLen
	db       Pinger
	mu       sync.Mutex
	lastTime time.Time
	last     *Report
}

func NewMonitor(stats StatProvider, queue QueueLen, db Pinger) *Monitor {
	return &Monitor{stats: stats, queue: queue, db: db}
}

// Check builds a health report. Results are cached briefly so probe
// storms do not hammer Redis and Postgres.
func (m *Monitor) Check(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.last != nil && time.Since(m.lastTime) < 10*time.Second {
		return m.last
	}

	report := &Report{
		SystemStatus: StatusHealthy,
		Backends:     make(map[string]BackendHealth),
	}

	for name, stat := range m.stats.Snapshot() {
		h := BackendHealth{
			Backend:             name,
			Status:              StatusHealthy,
			SuccessRate:         stat.SuccessRateEMA,
			ConsecutiveFailures: stat.ConsecutiveFailures,
		}
		if stat.SuccessRateEMA < criticalSuccessRate || stat.ConsecutiveFailures >= criticalFailures {
			h.Status = StatusCritical
		} else if stat.SuccessRateEMA < degradedSuccessRate || stat.ConsecutiveFailures > 0 {
			h.Status = StatusDegraded
		}
		report.Backends[name] = h
	}

	// One healthy backend keeps the system serviceable; system status
	// reflects the best backend, not the worst.
	if len(report.Backends) > 0 {
		best := StatusCritical
		for _, h := range report.Backends {
			if h.Status == StatusHealthy {
				best = StatusHealthy
				break
			}
			if h.Status == StatusDegraded {
				best = StatusDegraded
			}
		}
		report.SystemStatus = best
	}

	if m.queue != nil {
		if n, err := m.queue.Len(ctx); err == nil {
			report.PendingAudio = n
			if n > 100 && report.SystemStatus == StatusHealthy {
				report.SystemStatus = StatusDegraded
			}
		}
	}

	if m.db != nil {
		if err := m.db.Health(ctx); err != nil {
			report.Database = "unreachable"
			if report.SystemStatus == StatusHealthy {
				report.SystemStatus = StatusDegraded
			}
		} else {
			report.Database = "ok"
		}
	}

	m.lastTime = time.Now()
	m.last = report
	return report
}
