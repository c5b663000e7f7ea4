package domain

// DefaultSuccessRate is the EMA a backend starts with on first sight.
const DefaultSuccessRate = 0.8

// BackendStat holds the rolling performance record for one backend.
// Stats are keyed by backend name, persisted across restarts, and
// mutated only by the performance tracker after a backend's full retry
// budget is settled.
type BackendStat struct {
	BackendName         string  `json:"backend_name"`
	SuccessRateEMA      float64 `json:"success_rate_ema"`
	ConsecutiveFailures int     `json:"consecutive_failures"`
}

// NewBackendStat returns the default stat for a backend seen for the
// first time.
func NewBackendStat(name string) BackendStat {
	return BackendStat{
		BackendName:    name,
		SuccessRateEMA: DefaultSuccessRate,
	}
}
