// Package stability contains the recovery orchestrator and its
// supporting parts: backend performance tracking, ranking, and bounded
// attempt execution.
package stability

import (
	"log/slog"
	"sync"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// alpha is the EMA learning rate for backend success rates.
const alpha = 0.1

// StatStore durably persists backend stats between runs.
type StatStore interface {
	Load() (map[string]domain.BackendStat, error)
	Save(stats map[string]domain.BackendStat) error
}

// Tracker maintains rolling success-rate statistics per backend.
//
// The store is the only state shared across concurrent recovery calls,
// so every read and update goes through one mutex to avoid lost EMA
// updates.
type Tracker struct {
	mu    sync.Mutex
	stats map[string]domain.BackendStat
	store StatStore
	log   *slog.Logger
}

// NewTracker creates a tracker backed by store. A failed load is logged
// and treated as starting from empty; it is never fatal.
func NewTracker(store StatStore, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	t := &Tracker{
		stats: make(map[string]domain.BackendStat),
		store: store,
		log:   log,
	}

	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			log.Warn("Failed to load backend stats, starting empty", "error", err)
		} else if loaded != nil {
			t.stats = loaded
		}
	}

	return t
}

// GetStat returns the stat for a backend, or the default for a backend
// seen for the first time.
func (t *Tracker) GetStat(name string) domain.BackendStat {
	t.mu.Lock()
	defer t.mu.Unlock()

	if stat, ok := t.stats[name]; ok {
		return stat
	}
	return domain.NewBackendStat(name)
}

// RecordOutcome folds one backend-level outcome into the EMA. Success
// resets the consecutive-failure count; failure increments it.
func (t *Tracker) RecordOutcome(name string, succeeded bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stat, ok := t.stats[name]
	if !ok {
		stat = domain.NewBackendStat(name)
	}

	observation := 0.0
	if succeeded {
		observation = 1.0
		stat.ConsecutiveFailures = 0
	} else {
		stat.ConsecutiveFailures++
	}
	stat.SuccessRateEMA = stat.SuccessRateEMA*(1-alpha) + observation*alpha

	t.stats[name] = stat
	backendSuccessRate.WithLabelValues(name).Set(stat.SuccessRateEMA)
}

// Snapshot returns a copy of all known stats.
func (t *Tracker) Snapshot() map[string]domain.BackendStat {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]domain.BackendStat, len(t.stats))
	for name, stat := range t.stats {
		out[name] = stat
	}
	return out
}

// Persist flushes all stats to the durable store. Write failures are
// logged as warnings; they never affect recovery results.
func (t *Tracker) Persist() {
	if t.store == nil {
		return
	}

	t.mu.Lock()
	snapshot := make(map[string]domain.BackendStat, len(t.stats))
	for name, stat := range t.stats {
		snapshot[name] = stat
	}
	t.mu.Unlock()

	if err := t.store.Save(snapshot); err != nil {
		t.log.Warn("Failed to persist backend stats", "error", err)
	}
}
