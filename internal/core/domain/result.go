package domain

// RecoveryResult is the orchestrator's output for one audio file.
//
// If Success is true the last element of Attempts has OutcomeSuccess and
// its transcript equals Transcript. If Success is false every attempt's
// outcome is failure or timeout and BackendUsed is empty.
type RecoveryResult struct {
	Success             bool            `json:"success"`
	Transcript          string          `json:"transcript"`
	BackendUsed         string          `json:"backend_used,omitempty"`
	Attempts            []AttemptRecord `json:"attempts"`
	Profile             AudioProfile    `json:"audio_profile"`
	PreprocessedPath    string          `json:"preprocessed_path,omitempty"`
	TotalElapsedSeconds float64         `json:"total_elapsed_seconds"`
}

// TotalAttempts returns the number of attempts made across all backends.
func (r *RecoveryResult) TotalAttempts() int {
	return len(r.Attempts)
}
