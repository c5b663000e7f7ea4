package domain

// Outcome tags the result of a single transcription attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
)

// AttemptRecord captures one bounded-timeout invocation of a single
// backend against a single audio file. Records are immutable once
// created and appended to the enclosing RecoveryResult in
// chronological order.
type AttemptRecord struct {
	BackendName    string  `json:"backend_name"`
	AttemptNumber  int     `json:"attempt_number"` // 1-based within a backend
	Outcome        Outcome `json:"outcome"`
	Transcript     string  `json:"transcript,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	TimeoutSeconds float64 `json:"timeout_used_seconds"`
}
