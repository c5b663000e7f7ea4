package stability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// attemptsTotal tracks transcription attempts per backend and outcome.
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxmend_attempts_total",
			Help: "Total number of transcription attempts",
		},
		[]string{"backend", "outcome"},
	)

	// attemptDuration tracks attempt wall-clock time per backend.
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxmend_attempt_duration_seconds",
			Help:    "Transcription attempt duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"backend"},
	)

	// recoveriesTotal tracks completed recovery runs by outcome.
	recoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxmend_recoveries_total",
			Help: "Total number of completed recovery runs",
		},
		[]string{"outcome"},
	)

	// backendSuccessRate exposes the current per-backend success EMA.
	backendSuccessRate = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "voxmend_backend_success_rate",
			Help: "Exponential moving average of backend success rate",
		},
		[]string{"backend"},
	)
)
