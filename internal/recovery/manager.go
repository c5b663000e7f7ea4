package recovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/voxmend/voxmend/internal/core/domain"
	"github.com/voxmend/voxmend/internal/report"
	"github.com/voxmend/voxmend/internal/stability"
)

// Orchestrator is the slice of the stability orchestrator the manager
// needs.
type Orchestrator interface {
	Recover(ctx context.Context, audioPath string, progress stability.ProgressFunc) (*domain.RecoveryResult, error)
}

// TranscriptStore persists successful transcripts; nil disables
// database storage.
type TranscriptStore interface {
	Save(ctx context.Context, audioPath string, result *domain.RecoveryResult) (string, error)
}

// Manager drains the pending queue: each recording is preserved in the
// recovery directory, run through the orchestrator, and logged.
type Manager struct {
	queue        Queue
	orchestrator Orchestrator
	recoveryDir  string
	recoveryLog  *report.Log
	transcripts  TranscriptStore
	log          *slog.Logger
}

type ManagerOptions struct {
	Queue        Queue
	Orchestrator Orchestrator
	RecoveryDir  string
	RecoveryLog  *report.Log
	Transcripts  TranscriptStore
	Logger       *slog.Logger
}

func NewManager(opts ManagerOptions) *Manager {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		queue:        opts.Queue,
		orchestrator: opts.Orchestrator,
		recoveryDir:  opts.RecoveryDir,
		recoveryLog:  opts.RecoveryLog,
		transcripts:  opts.Transcripts,
		log:          log,
	}
}

// DrainResult summarizes one queue drain.
type DrainResult struct {
	Processed int
	Succeeded int
}

// Drain processes pending recordings until the queue is empty or the
// context is canceled. A recording that fails recovery is logged and
// dropped, not requeued; requeueing a hopeless file would loop forever.
func (m *Manager) Drain(ctx context.Context) (DrainResult, error) {
	var res DrainResult
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		item, ok, err := m.queue.Pop(ctx)
		if err != nil {
			return res, fmt.Errorf("pop pending audio: %w", err)
		}
		if !ok {
			return res, nil
		}

		result, err := m.RecoverOne(ctx, item.Path)
		if err != nil {
			if ctx.Err() != nil {
				return res, err
			}
			m.log.Warn("Recovery skipped", "path", item.Path, "error", err)
			continue
		}
		res.Processed++
		if result.Success {
			res.Succeeded++
		}
	}
}

// RecoverOne preserves the recording and runs a full recovery on the
// preserved copy.
func (m *Manager) RecoverOne(ctx context.Context, audioPath string) (*domain.RecoveryResult, error) {
	preserved, err := m.preserve(audioPath)
	if err != nil {
		// Recover from the original location; preservation is best
		// effort.
		m.log.Warn("Could not preserve recording", "path", audioPath, "error", err)
		preserved = audioPath
	}

	result, err := m.orchestrator.Recover(ctx, preserved, nil)
	if err != nil {
		return nil, err
	}

	if m.recoveryLog != nil {
		if _, err := m.recoveryLog.Append(audioPath, result); err != nil {
			m.log.Warn("Recovery log write failed", "error", err)
		}
	}
	if m.transcripts != nil && result.Success {
		if _, err := m.transcripts.Save(ctx, audioPath, result); err != nil {
			m.log.Warn("Transcript store write failed", "error", err)
		}
	}

	if result.Success {
		m.log.Info("Recovery succeeded",
			"path", audioPath,
			"backend", result.BackendUsed,
			"attempts", result.TotalAttempts(),
			"elapsed", fmt.Sprintf("%.1fs", result.TotalElapsedSeconds))
	} else {
		m.log.Warn("Recovery failed",
			"path", audioPath,
			"attempts", result.TotalAttempts())
	}
	return result, nil
}

// preserve copies the recording into the recovery directory so the
// original temp file can be reaped without losing the audio.
func (m *Manager) preserve(audioPath string) (string, error) {
	if m.recoveryDir == "" {
		return audioPath, nil
	}
	if err := os.MkdirAll(m.recoveryDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(m.recoveryDir,
		fmt.Sprintf("recovered_%d_%s", time.Now().Unix(), filepath.Base(audioPath)))

	src, err := os.Open(audioPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return dst, nil
}
