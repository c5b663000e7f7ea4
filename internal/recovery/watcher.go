package recovery

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay is how long a file must go without writes before the
// watcher treats the recording as complete and enqueues it.
const settleDelay = 2 * time.Second

// Watcher enqueues recordings as they appear in the intake directories,
// so crashes between recording and transcription leave work in the
// queue instead of orphaned temp files.
type Watcher struct {
	dirs     []string
	patterns []string
	queue    Queue
	log      *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewWatcher(dirs, patterns []string, queue Queue, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		dirs:     dirs,
		patterns: patterns,
		queue:    queue,
		log:      log,
		timers:   map[string]*time.Timer{},
	}
}

// Run watches until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			w.log.Warn("Cannot watch intake dir", "dir", dir, "error", err)
		}
	}

	w.log.Info("Watching intake dirs", "dirs", w.dirs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}
			w.armTimer(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// armTimer (re)starts the settle timer for a path. Each write resets
// it, so the enqueue fires once the recorder stops touching the file.
func (w *Watcher) armTimer(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(settleDelay)
		return
	}
	w.timers[path] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.enqueue(ctx, path)
	})
}

func (w *Watcher) enqueue(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return
	}
	if err := w.queue.Push(ctx, PendingAudio{Path: path, ModTime: info.ModTime()}); err != nil {
		w.log.Warn("Enqueue failed", "path", path, "error", err)
		return
	}
	w.log.Info("Recording queued for recovery", "path", path)
}
