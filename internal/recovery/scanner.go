package recovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Scanner sweeps configured directories for recordings that never made
// it through transcription.
type Scanner struct {
	dirs     []string
	patterns []string
	maxAge   time.Duration
	queue    Queue
	log      *slog.Logger
}

func NewScanner(dirs, patterns []string, maxAge time.Duration, queue Queue, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{dirs: dirs, patterns: patterns, maxAge: maxAge, queue: queue, log: log}
}

// Scan enqueues every matching file newer than the age cutoff and
// returns how many were found. Unreadable directories are skipped, not
// fatal; a scan over half-missing temp dirs is still useful.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.maxAge)
	found := 0

	for _, dir := range s.dirs {
		for _, pattern := range s.patterns {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				s.log.Warn("Bad scan pattern", "pattern", pattern, "error", err)
				continue
			}
			for _, path := range matches {
				if err := ctx.Err(); err != nil {
					return found, err
				}
				info, err := os.Stat(path)
				if err != nil || info.IsDir() {
					continue
				}
				if info.ModTime().Before(cutoff) {
					continue
				}
				if info.Size() == 0 {
					s.log.Debug("Skipping empty recording", "path", path)
					continue
				}
				if err := s.queue.Push(ctx, PendingAudio{Path: path, ModTime: info.ModTime()}); err != nil {
					return found, err
				}
				found++
			}
		}
	}

	s.log.Info("Scan complete", "dirs", len(s.dirs), "found", found)
	return found, nil
}
