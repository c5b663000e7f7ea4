package stability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/voxmend/voxmend/internal/backend"
	"github.com/voxmend/voxmend/internal/core/domain"
)

func TestAttempt_Success(t *testing.T) {
	b := backend.Func{BackendName: "mock", Fn: func(ctx context.Context, path string) (string, error) {
		return "hello world", nil
	}}

	record := NewExecutor(nil).Attempt(context.Background(), b, "x.wav", time.Second, 1)

	if record.Outcome != domain.OutcomeSuccess {
		t.Errorf("Expected success, got %s", record.Outcome)
	}
	if record.Transcript != "hello world" {
		t.Errorf("Expected transcript, got %q", record.Transcript)
	}
	if record.AttemptNumber != 1 {
		t.Errorf("Expected attempt 1, got %d", record.AttemptNumber)
	}
	if record.BackendName != "mock" {
		t.Errorf("Expected backend mock, got %s", record.BackendName)
	}
}

func TestAttempt_Failure(t *testing.T) {
	b := backend.Func{BackendName: "mock", Fn: func(ctx context.Context, path string) (string, error) {
		return "", errors.New("model exploded")
	}}

	record := NewExecutor(nil).Attempt(context.Background(), b, "x.wav", time.Second, 1)

	if record.Outcome != domain.OutcomeFailure {
		t.Errorf("Expected failure, got %s", record.Outcome)
	}
	if !strings.Contains(record.ErrorMessage, "model exploded") {
		t.Errorf("Expected error message, got %q", record.ErrorMessage)
	}
	if record.Transcript != "" {
		t.Errorf("Expected empty transcript, got %q", record.Transcript)
	}
}

func TestAttempt_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	b := backend.Func{BackendName: "slow", Fn: func(ctx context.Context, path string) (string, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return "too late", nil
	}}

	start := time.Now()
	record := NewExecutor(nil).Attempt(context.Background(), b, "x.wav", 50*time.Millisecond, 2)
	elapsed := time.Since(start)

	if record.Outcome != domain.OutcomeTimeout {
		t.Errorf("Expected timeout, got %s", record.Outcome)
	}
	if !strings.HasPrefix(record.ErrorMessage, "Timeout after") {
		t.Errorf("Expected timeout message, got %q", record.ErrorMessage)
	}
	if elapsed > time.Second {
		t.Errorf("Executor waited past the bound: %v", elapsed)
	}
	if record.TimeoutSeconds != 0.05 {
		t.Errorf("Expected timeout_used 0.05, got %v", record.TimeoutSeconds)
	}
}

func TestAttempt_CtxHonoringBackendStillTimesOut(t *testing.T) {
	// A backend that returns the context error at the deadline races
	// the executor's own timer; either way the select resolves, the
	// attempt must be recorded as a timeout, not a failure.
	b := backend.Func{BackendName: "polite", Fn: func(ctx context.Context, path string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	e := NewExecutor(nil)
	for i := 0; i < 20; i++ {
		record := e.Attempt(context.Background(), b, "x.wav", 10*time.Millisecond, 1)
		if record.Outcome != domain.OutcomeTimeout {
			t.Fatalf("Iteration %d: expected timeout, got %s (%q)", i, record.Outcome, record.ErrorMessage)
		}
		if !strings.HasPrefix(record.ErrorMessage, "Timeout after") {
			t.Fatalf("Iteration %d: expected timeout message, got %q", i, record.ErrorMessage)
		}
	}
}

func TestAttempt_PanicCapturedAsFailure(t *testing.T) {
	b := backend.Func{BackendName: "panicky", Fn: func(ctx context.Context, path string) (string, error) {
		panic("metal command buffer conflict")
	}}

	record := NewExecutor(nil).Attempt(context.Background(), b, "x.wav", time.Second, 1)

	if record.Outcome != domain.OutcomeFailure {
		t.Errorf("Expected failure for panic, got %s", record.Outcome)
	}
	if !strings.Contains(record.ErrorMessage, "metal command buffer conflict") {
		t.Errorf("Expected panic message, got %q", record.ErrorMessage)
	}
}

func TestEffectiveTimeout_Scaling(t *testing.T) {
	base := 180

	first := effectiveTimeout(base, 1)
	second := effectiveTimeout(base, 2)
	third := effectiveTimeout(base, 3)

	if first != 180*time.Second {
		t.Errorf("Attempt 1: expected 180s, got %v", first)
	}
	if second != 270*time.Second {
		t.Errorf("Attempt 2: expected 270s, got %v", second)
	}
	if third != 360*time.Second {
		t.Errorf("Attempt 3: expected 360s, got %v", third)
	}
	if second <= first {
		t.Error("Attempt 2 timeout must be strictly greater than attempt 1")
	}
}

func TestBackoffDelay_Capped(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second}, // 16 capped to 10
		{10, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := backoffDelay(tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
