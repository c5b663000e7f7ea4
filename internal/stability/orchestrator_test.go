package stability

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/voxmend/voxmend/internal/backend"
	"github.com/voxmend/voxmend/internal/core/domain"
)

// writeWAVFixture writes a mono 16-bit PCM WAV file. The header can
// declare a longer duration than the samples actually written, which
// lets tests exercise long-clip profiles without megabytes of audio.
func writeWAVFixture(t *testing.T, path string, declaredSeconds, actualSeconds float64, sampleRate int) {
	t.Helper()

	declaredFrames := int(declaredSeconds * float64(sampleRate))
	actualFrames := int(actualSeconds * float64(sampleRate))
	dataSize := declaredFrames * 2

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for i := 0; i < actualFrames; i++ {
		s := 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		binary.Write(&buf, binary.LittleEndian, int16(s*32767))
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

// flakyBackend fails a fixed number of times then succeeds.
type flakyBackend struct {
	name       string
	failures   int
	calls      int
	transcript string
}

func (f *flakyBackend) Name() string { return f.name }

func (f *flakyBackend) Transcribe(ctx context.Context, path string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient backend error")
	}
	return f.transcript, nil
}

func alwaysFailing(name string) backend.Backend {
	return backend.Func{BackendName: name, Fn: func(ctx context.Context, path string) (string, error) {
		return "", errors.New("permanent backend error")
	}}
}

func TestRecover_RetryThenSucceed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeWAVFixture(t, path, 15, 15, 16000)

	b1 := &flakyBackend{name: "backend1", failures: 1, transcript: "recovered text"}
	o, err := NewOrchestrator(Options{
		Backends:       backend.Map{"backend1": b1, "backend2": alwaysFailing("backend2")},
		CandidateOrder: []string{"backend1", "backend2"},
		Classes:        map[string]BackendClass{"backend1": ClassShortAudio},
		MaxRetries:     2,
		Sleep:          noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if !result.Success {
		t.Fatal("Expected success")
	}
	if result.BackendUsed != "backend1" {
		t.Errorf("Expected backend1, got %s", result.BackendUsed)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(result.Attempts))
	}
	last := result.Attempts[len(result.Attempts)-1]
	if last.Outcome != domain.OutcomeSuccess {
		t.Errorf("Last attempt should be success, got %s", last.Outcome)
	}
	if last.Transcript != result.Transcript || result.Transcript != "recovered text" {
		t.Errorf("Transcript mismatch: %q vs %q", last.Transcript, result.Transcript)
	}
	if result.Profile.Category != domain.CategoryShort {
		t.Errorf("Expected short category, got %s", result.Profile.Category)
	}
}

func TestRecover_ShortCircuitsOnSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeWAVFixture(t, path, 15, 15, 16000)

	succeeding := backend.Func{BackendName: "good", Fn: func(ctx context.Context, p string) (string, error) {
		return "done", nil
	}}

	o, err := NewOrchestrator(Options{
		Backends: backend.Map{
			"bad":   alwaysFailing("bad"),
			"good":  succeeding,
			"never": alwaysFailing("never"),
		},
		CandidateOrder: []string{"bad", "good", "never"},
		MaxRetries:     2,
		Sleep:          noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	// bad exhausts 2 attempts, good succeeds on its first; never is
	// not touched.
	if !result.Success {
		t.Fatal("Expected success")
	}
	if len(result.Attempts) != 3 {
		t.Errorf("Expected 3 attempts (2 failed + 1 success), got %d", len(result.Attempts))
	}
	for _, rec := range result.Attempts {
		if rec.BackendName == "never" {
			t.Error("Backend after success must not be attempted")
		}
	}
}

func TestRecover_Exhaustion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "long.wav")
	// Declared 400s puts the clip in very_long; only 1s of samples is
	// actually written.
	writeWAVFixture(t, path, 400, 1, 16000)

	o, err := NewOrchestrator(Options{
		Backends: backend.Map{
			"b1": alwaysFailing("b1"),
			"b2": alwaysFailing("b2"),
		},
		CandidateOrder: []string{"b1", "b2"},
		MaxRetries:     2,
		Sleep:          noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if result.Success {
		t.Fatal("Expected exhaustion")
	}
	if result.BackendUsed != "" {
		t.Errorf("Expected no backend used, got %s", result.BackendUsed)
	}
	if len(result.Attempts) != 4 {
		t.Errorf("Expected exactly 2 backends x 2 retries = 4 attempts, got %d", len(result.Attempts))
	}
	for _, rec := range result.Attempts {
		if rec.Outcome == domain.OutcomeSuccess {
			t.Errorf("No attempt should succeed, got %+v", rec)
		}
	}
	if result.Profile.Category != domain.CategoryVeryLong {
		t.Errorf("Expected very_long category, got %s", result.Profile.Category)
	}

	// One backend-level outcome each, not one per attempt.
	for _, name := range []string{"b1", "b2"} {
		if got := o.Tracker().GetStat(name).ConsecutiveFailures; got != 1 {
			t.Errorf("%s: expected 1 consecutive failure, got %d", name, got)
		}
	}
}

func TestRecover_MissingFile(t *testing.T) {
	o, err := NewOrchestrator(Options{
		Backends: backend.Map{"b1": alwaysFailing("b1")},
		Sleep:    noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(context.Background(), "/nonexistent/clip.wav", nil)
	if !errors.Is(err, domain.ErrAudioNotFound) {
		t.Errorf("Expected ErrAudioNotFound, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result before any attempt, got %+v", result)
	}
}

func TestRecover_MalformedAudioStillAttempts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.wav")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	succeeding := backend.Func{BackendName: "b1", Fn: func(ctx context.Context, p string) (string, error) {
		return "salvaged", nil
	}}

	o, err := NewOrchestrator(Options{
		Backends: backend.Map{"b1": succeeding},
		Sleep:    noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if result.Profile.Category != domain.CategoryMedium {
		t.Errorf("Expected degraded medium profile, got %s", result.Profile.Category)
	}
	if result.Profile.RecommendedTimeout != 180 {
		t.Errorf("Expected 180s degraded timeout, got %d", result.Profile.RecommendedTimeout)
	}
	if !result.Success || result.Transcript != "salvaged" {
		t.Errorf("Expected recovery to proceed normally: %+v", result)
	}
}

func TestRecover_ProgressCallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeWAVFixture(t, path, 15, 15, 16000)

	succeeding := backend.Func{BackendName: "b1", Fn: func(ctx context.Context, p string) (string, error) {
		return "ok", nil
	}}
	o, err := NewOrchestrator(Options{
		Backends: backend.Map{"b1": succeeding},
		Sleep:    noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	var fractions []float64
	_, err = o.Recover(context.Background(), path, func(msg string, frac float64) {
		fractions = append(fractions, frac)
	})
	if err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if len(fractions) == 0 {
		t.Fatal("Expected progress callbacks")
	}
	if fractions[len(fractions)-1] != 1.0 {
		t.Errorf("Expected final fraction 1.0, got %v", fractions[len(fractions)-1])
	}
}

func TestRecover_PersistsStats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeWAVFixture(t, path, 15, 15, 16000)
	statsPath := filepath.Join(dir, "stats.json")

	succeeding := backend.Func{BackendName: "b1", Fn: func(ctx context.Context, p string) (string, error) {
		return "ok", nil
	}}
	o, err := NewOrchestrator(Options{
		Backends:  backend.Map{"b1": succeeding},
		StatStore: NewFileStore(statsPath),
		Sleep:     noSleep,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	if _, err := o.Recover(context.Background(), path, nil); err != nil {
		t.Fatalf("Recover failed: %v", err)
	}

	if _, err := os.Stat(statsPath); err != nil {
		t.Errorf("Expected stats file after recovery: %v", err)
	}
}

func TestNewOrchestrator_Validation(t *testing.T) {
	if _, err := NewOrchestrator(Options{}); !errors.Is(err, domain.ErrNoBackends) {
		t.Errorf("Expected ErrNoBackends, got %v", err)
	}

	_, err := NewOrchestrator(Options{
		Backends:   backend.Map{"b1": alwaysFailing("b1")},
		MaxRetries: -1,
	})
	if !errors.Is(err, domain.ErrInvalidRetries) {
		t.Errorf("Expected ErrInvalidRetries, got %v", err)
	}
}

func TestRecover_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	writeWAVFixture(t, path, 15, 15, 16000)

	ctx, cancel := context.WithCancel(context.Background())
	failing := backend.Func{BackendName: "b1", Fn: func(ctx context.Context, p string) (string, error) {
		cancel()
		return "", errors.New("failure triggering backoff")
	}}

	o, err := NewOrchestrator(Options{
		Backends:   backend.Map{"b1": failing},
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("NewOrchestrator failed: %v", err)
	}

	result, err := o.Recover(ctx, path, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if result == nil || result.Success {
		t.Error("Expected partial unsuccessful result on cancellation")
	}
}
