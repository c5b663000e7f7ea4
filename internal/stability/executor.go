package stability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxmend/voxmend/internal/backend"
	"github.com/voxmend/voxmend/internal/core/domain"
)

// Executor runs single transcription attempts under a hard wall-clock
// bound. It never returns an error: every outcome, including timeouts
// and backend panics, is captured in the AttemptRecord.
type Executor struct {
	log *slog.Logger
}

// NewExecutor creates an attempt executor.
func NewExecutor(log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{log: log}
}

type attemptResult struct {
	transcript string
	err        error
}

// Attempt runs one transcription attempt against one backend.
//
// The backend call runs on its own goroutine with a cancelable context.
// On timeout the context is canceled as a best-effort interrupt and the
// caller proceeds immediately; the orphaned worker drains into a
// buffered channel so it never leaks a blocked send.
func (e *Executor) Attempt(
	ctx context.Context,
	b backend.Backend,
	audioPath string,
	timeout time.Duration,
	attemptNumber int,
) domain.AttemptRecord {
	record := domain.AttemptRecord{
		BackendName:    b.Name(),
		AttemptNumber:  attemptNumber,
		TimeoutSeconds: timeout.Seconds(),
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan attemptResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- attemptResult{err: fmt.Errorf("backend panic: %v", r)}
			}
		}()
		transcript, err := b.Transcribe(attemptCtx, audioPath)
		resultCh <- attemptResult{transcript: transcript, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		record.ElapsedSeconds = time.Since(start).Seconds()
		if res.err != nil {
			// A ctx-honoring backend can return the deadline error a
			// hair before the local timer fires; that is still a
			// timeout, not a backend failure.
			if attemptCtx.Err() == context.DeadlineExceeded {
				record.Outcome = domain.OutcomeTimeout
				record.ErrorMessage = fmt.Sprintf("Timeout after %gs", timeout.Seconds())
				e.log.Warn("Attempt timed out",
					"backend", b.Name(), "attempt", attemptNumber, "timeout", timeout)
				break
			}
			record.Outcome = domain.OutcomeFailure
			record.ErrorMessage = res.err.Error()
			e.log.Warn("Attempt failed",
				"backend", b.Name(), "attempt", attemptNumber, "error", res.err)
		} else {
			record.Outcome = domain.OutcomeSuccess
			record.Transcript = res.transcript
			e.log.Info("Attempt succeeded",
				"backend", b.Name(), "attempt", attemptNumber,
				"elapsed", time.Since(start).Round(time.Millisecond))
		}
	case <-timer.C:
		record.ElapsedSeconds = time.Since(start).Seconds()
		record.Outcome = domain.OutcomeTimeout
		record.ErrorMessage = fmt.Sprintf("Timeout after %gs", timeout.Seconds())
		e.log.Warn("Attempt timed out",
			"backend", b.Name(), "attempt", attemptNumber, "timeout", timeout)
	}

	attemptsTotal.WithLabelValues(b.Name(), string(record.Outcome)).Inc()
	attemptDuration.WithLabelValues(b.Name()).Observe(record.ElapsedSeconds)

	return record
}
