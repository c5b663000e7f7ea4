// Package control wires the recovery service together and manages its
// lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/voxmend/voxmend/internal/backend"
	"github.com/voxmend/voxmend/internal/core/config"
	"github.com/voxmend/voxmend/internal/health"
	"github.com/voxmend/voxmend/internal/infra/redisq"
	"github.com/voxmend/voxmend/internal/infra/storage/postgres"
	"github.com/voxmend/voxmend/internal/recovery"
	"github.com/voxmend/voxmend/internal/report"
	"github.com/voxmend/voxmend/internal/stability"
)

// App is the long-running recovery service: intake watcher, periodic
// scanner, queue drainer and ops HTTP server.
type App struct {
	cfg          *config.AppConfig
	orchestrator *stability.Orchestrator
	manager      *recovery.Manager
	queue        recovery.Queue
	scanner      *recovery.Scanner
	watcher      *recovery.Watcher
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisq.Client
	log          *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// scanInterval is how often the service sweeps intake dirs for
// recordings the watcher missed (e.g. written while the service was
// down).
const scanInterval = 5 * time.Minute

// NewApp creates the service with all dependencies initialized.
func NewApp(cfg *config.AppConfig, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	app := &App{cfg: cfg, log: log}

	// Storage is optional; without a database transcripts live only in
	// the recovery log.
	var transcripts recovery.TranscriptStore
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		app.db = db
		transcripts = postgres.NewTranscriptRepo(db)
		log.Info("Using PostgreSQL transcript storage")
	} else {
		log.Info("Database not configured, transcripts stay in the recovery log")
	}

	// Queue: Redis when configured, otherwise in-process.
	if cfg.Redis.URL != "" {
		rc, err := redisq.NewClient(cfg.Redis)
		if err != nil {
			app.closePartial()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redisClient = rc
		app.queue = recovery.NewRedisQueue(rc)
		log.Info("Using Redis pending-audio queue")
	} else {
		app.queue = recovery.NewMemoryQueue()
		log.Info("Redis not configured, using in-memory queue")
	}

	backends, order, err := backend.BuildMap(cfg.Backends)
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("build backends: %w", err)
	}

	orch, err := stability.NewOrchestrator(stability.Options{
		Backends:       backends,
		CandidateOrder: order,
		Classes:        backendClasses(cfg.Backends),
		MaxRetries:     cfg.Recovery.MaxRetriesPerBackend,
		StatStore:      stability.NewFileStore(cfg.Stats.Path),
		Logger:         log,
	})
	if err != nil {
		app.closePartial()
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}
	app.orchestrator = orch

	app.manager = recovery.NewManager(recovery.ManagerOptions{
		Queue:        app.queue,
		Orchestrator: orch,
		RecoveryDir:  cfg.Recovery.Dir,
		RecoveryLog:  report.NewLog(cfg.Recovery.LogPath),
		Transcripts:  transcripts,
		Logger:       log,
	})

	app.scanner = recovery.NewScanner(
		cfg.Recovery.ScanDirs, cfg.Recovery.ScanPatterns,
		cfg.Recovery.MaxAge, app.queue, log)
	app.watcher = recovery.NewWatcher(
		cfg.Recovery.ScanDirs, cfg.Recovery.ScanPatterns,
		app.queue, log)

	var pinger health.Pinger
	if app.db != nil {
		pinger = app.db
	}
	monitor := health.NewMonitor(orch.Tracker(), queueLen{app.queue}, pinger)
	app.healthServer = health.NewServer(monitor, cfg.Server.Port)

	return app, nil
}

// Orchestrator exposes the underlying orchestrator for one-shot CLI
// commands.
func (a *App) Orchestrator() *stability.Orchestrator { return a.orchestrator }

// Manager exposes the recovery manager for one-shot CLI commands.
func (a *App) Manager() *recovery.Manager { return a.manager }

// Queue exposes the pending-audio queue.
func (a *App) Queue() recovery.Queue { return a.queue }

// Scanner exposes the lost-audio scanner.
func (a *App) Scanner() *recovery.Scanner { return a.scanner }

// Start launches the background loops. It returns immediately; the
// loops run until Stop.
func (a *App) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.watcher.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("Intake watcher stopped", "error", err)
		}
	}()

	a.wg.Add(1)
	go a.drainLoop(ctx)

	a.log.Info("Recovery service started", "port", a.cfg.Server.Port)
	return nil
}

// drainLoop scans on startup and then periodically, draining the queue
// after each pass and whenever the watcher has queued new recordings.
func (a *App) drainLoop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	// Queue poll between scans picks up watcher-enqueued recordings
	// promptly without a second signaling channel.
	poll := time.NewTicker(5 * time.Second)
	defer poll.Stop()

	scanAndDrain := func() {
		if _, err := a.scanner.Scan(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("Scan failed", "error", err)
		}
		a.drain(ctx)
	}
	scanAndDrain()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scanAndDrain()
		case <-poll.C:
			a.drain(ctx)
		}
	}
}

func (a *App) drain(ctx context.Context) {
	res, err := a.manager.Drain(ctx)
	if err != nil && ctx.Err() == nil {
		a.log.Warn("Drain failed", "error", err)
	}
	if res.Processed > 0 {
		a.log.Info("Queue drained", "processed", res.Processed, "succeeded", res.Succeeded)
	}
}

// Stop shuts the service down, waiting for in-flight work up to the
// context deadline.
func (a *App) Stop(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.healthServer.Stop(ctx); err != nil {
		a.log.Warn("Health server shutdown", "error", err)
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.log.Warn("Shutdown timed out with work in flight")
	}

	a.closePartial()
	a.log.Info("Recovery service stopped")
	return nil
}

func (a *App) closePartial() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
		a.redisClient = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

// queueLen adapts recovery.Queue to the health monitor's narrower view.
type queueLen struct {
	q recovery.Queue
}

func (l queueLen) Len(ctx context.Context) (int, error) {
	return l.q.Len(ctx)
}

// backendClasses maps configured class labels onto ranking classes.
// Unknown labels mean no heuristic for that backend.
func backendClasses(cfgs []config.BackendConfig) map[string]stability.BackendClass {
	classes := make(map[string]stability.BackendClass)
	for _, c := range cfgs {
		switch c.Class {
		case "short":
			classes[c.Name] = stability.ClassShortAudio
		case "medium":
			classes[c.Name] = stability.ClassMediumAudio
		case "cloud":
			classes[c.Name] = stability.ClassCloudFallback
		}
	}
	return classes
}
