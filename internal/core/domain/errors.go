package domain

import "errors"

var (
	// ErrAudioNotFound means the input path does not exist. It is the
	// only transcription-adjacent error surfaced to callers before any
	// backend is attempted.
	ErrAudioNotFound = errors.New("audio file not found")

	// ErrNoBackends means the orchestrator was given an empty backend set.
	ErrNoBackends = errors.New("no transcription backends configured")

	// ErrInvalidRetries means the per-backend retry budget is below 1.
	ErrInvalidRetries = errors.New("max retries per backend must be at least 1")
)
