// Package health provides system health monitoring and status reporting.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// BackendHealth contains health metrics for one transcription backend.
type BackendHealth struct {
	Backend             string       `json:"backend"`
	Status              SystemStatus `json:"status"`
	SuccessRate         float64      `json:"success_rate"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus             `json:"system_status"`
	PendingAudio int                      `json:"pending_audio"`
	Database     string                   `json:"database,omitempty"`
	Backends     map[string]BackendHealth `json:"backends"`
}
