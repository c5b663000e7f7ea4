package stability

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/voxmend/voxmend/internal/audio"
	"github.com/voxmend/voxmend/internal/backend"
	"github.com/voxmend/voxmend/internal/core/domain"
)

// ProgressFunc receives progress updates during a recovery call. It
// must not block; the orchestrator's timing budget is not protected
// against slow callbacks.
type ProgressFunc func(message string, fraction float64)

// Options configures an Orchestrator.
type Options struct {
	Backends       backend.Map
	CandidateOrder []string // ranking tie-break order; defaults to map order
	Classes        map[string]BackendClass
	MaxRetries     int // attempts per backend, default 2
	StatStore      StatStore
	Logger         *slog.Logger

	// Sleep overrides the backoff sleep, for tests. When nil the
	// orchestrator sleeps for real (context-aware).
	Sleep func(ctx context.Context, d time.Duration) error
}

// Orchestrator drives the full recovery pipeline for one audio file:
// analyze, rank, optionally preprocess, then attempt backends strictly
// sequentially with bounded retries, backoff, and fallback.
//
// Backends are never run in parallel within a call: concurrent use of
// the same underlying model has been observed to crash on shared
// GPU/Metal command buffers.
type Orchestrator struct {
	backends   backend.Map
	order      []string
	analyzer   *audio.Analyzer
	prep       *audio.Preprocessor
	ranker     *Ranker
	tracker    *Tracker
	executor   *Executor
	maxRetries int
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// NewOrchestrator creates a recovery orchestrator.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if len(opts.Backends) == 0 {
		return nil, domain.ErrNoBackends
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 2
	}
	if opts.MaxRetries < 1 {
		return nil, domain.ErrInvalidRetries
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	order := opts.CandidateOrder
	if len(order) == 0 {
		order = opts.Backends.Names()
	}

	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	return &Orchestrator{
		backends:   opts.Backends,
		order:      order,
		analyzer:   audio.NewAnalyzer(log),
		prep:       audio.NewPreprocessor(log),
		ranker:     NewRanker(opts.Classes),
		tracker:    NewTracker(opts.StatStore, log),
		executor:   NewExecutor(log),
		maxRetries: opts.MaxRetries,
		sleep:      sleep,
		log:        log,
	}, nil
}

// Tracker exposes the orchestrator's performance tracker for reporting
// and health checks.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// Recover produces a transcript for the audio file despite possible
// backend failures.
//
// Only domain.ErrAudioNotFound and context cancellation surface as
// errors. Every transcription-level failure is data inside the
// returned RecoveryResult; total exhaustion reports Success=false, not
// an error.
func (o *Orchestrator) Recover(
	ctx context.Context,
	audioPath string,
	progress ProgressFunc,
) (*domain.RecoveryResult, error) {
	start := time.Now()

	profile, err := o.analyzer.Analyze(audioPath)
	if err != nil {
		return nil, err
	}

	ranked := o.ranker.Rank(o.order, profile, o.tracker)
	o.log.Info("Starting recovery",
		"path", audioPath,
		"duration", fmt.Sprintf("%.1fs", profile.DurationSeconds),
		"quality", fmt.Sprintf("%.2f", profile.SignalQualityScore),
		"category", profile.Category,
		"ranked", ranked)

	result := &domain.RecoveryResult{Profile: profile}

	attemptPath := audioPath
	if o.prep.Needed(profile) {
		attemptPath = o.prep.Process(audioPath)
		if attemptPath != audioPath {
			result.PreprocessedPath = attemptPath
		}
	}

	report(progress, "Starting recovery...", 0.0)

	for i, name := range ranked {
		b, ok := o.backends[name]
		if !ok {
			// Ranked names come from the candidate order, so this
			// means the capability map and order disagree.
			o.log.Warn("Ranked backend missing from capability map", "backend", name)
			continue
		}

		report(progress, fmt.Sprintf("Trying %s...", name), float64(i)/float64(len(ranked))*0.9)

		for attempt := 1; attempt <= o.maxRetries; attempt++ {
			timeout := effectiveTimeout(profile.RecommendedTimeout, attempt)
			record := o.executor.Attempt(ctx, b, attemptPath, timeout, attempt)
			result.Attempts = append(result.Attempts, record)

			if record.Outcome == domain.OutcomeSuccess {
				result.Success = true
				result.Transcript = record.Transcript
				result.BackendUsed = name
				result.TotalElapsedSeconds = time.Since(start).Seconds()

				o.tracker.RecordOutcome(name, true)
				o.tracker.Persist()
				recoveriesTotal.WithLabelValues("success").Inc()
				report(progress, "Transcription completed successfully", 1.0)
				return result, nil
			}

			if attempt < o.maxRetries {
				if err := o.sleep(ctx, backoffDelay(attempt)); err != nil {
					result.TotalElapsedSeconds = time.Since(start).Seconds()
					return result, err
				}
			}
		}

		// One backend-level outcome per backend, not per attempt, so
		// the EMA tracks whether the backend ultimately delivered.
		o.tracker.RecordOutcome(name, false)

		if ctx.Err() != nil {
			result.TotalElapsedSeconds = time.Since(start).Seconds()
			return result, ctx.Err()
		}
	}

	result.TotalElapsedSeconds = time.Since(start).Seconds()
	o.tracker.Persist()
	recoveriesTotal.WithLabelValues("exhausted").Inc()
	report(progress, "All transcription attempts failed", 1.0)
	o.log.Warn("Recovery exhausted all backends",
		"path", audioPath, "attempts", len(result.Attempts))

	return result, nil
}

// effectiveTimeout scales the base timeout by 50% per extra attempt, so
// retries on the same backend get proportionally more time. The formula
// is deliberately uncapped; retry budgets are small.
func effectiveTimeout(baseSeconds, attempt int) time.Duration {
	scaled := float64(baseSeconds) * (1 + 0.5*float64(attempt-1))
	return time.Duration(scaled * float64(time.Second))
}

// backoffDelay returns min(2^attempt, 10) seconds.
func backoffDelay(attempt int) time.Duration {
	d := math.Min(math.Pow(2, float64(attempt)), 10)
	return time.Duration(d * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func report(progress ProgressFunc, message string, fraction float64) {
	if progress != nil {
		progress(message, fraction)
	}
}
