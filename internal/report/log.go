// Package report persists recovery outcomes and summarizes backend
// performance from the accumulated history.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// Entry is one completed recovery, as stored in the log.
type Entry struct {
	ID            string                 `json:"id"`
	Timestamp     time.Time              `json:"timestamp"`
	AudioPath     string                 `json:"audio_path"`
	Success       bool                   `json:"success"`
	BackendUsed   string                 `json:"backend_used,omitempty"`
	Transcript    string                 `json:"transcript,omitempty"`
	DurationSec   float64                `json:"duration_seconds"`
	QualityScore  float64                `json:"quality_score"`
	Category      string                 `json:"category"`
	ElapsedSec    float64                `json:"elapsed_seconds"`
	Attempts      []domain.AttemptRecord `json:"attempts"`
	TotalAttempts int                    `json:"total_attempts"`
}

// Log is an append-only JSONL recovery history. Concurrent writers are
// not synchronized here; the recovery manager serializes recoveries.
type Log struct {
	path string
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

func (l *Log) Path() string { return l.path }

// Append records a finished recovery. Each entry gets a fresh id and
// timestamp at write time.
func (l *Log) Append(audioPath string, result *domain.RecoveryResult) (Entry, error) {
	entry := Entry{
		ID:            uuid.New().String(),
		Timestamp:     time.Now().UTC(),
		AudioPath:     audioPath,
		Success:       result.Success,
		BackendUsed:   result.BackendUsed,
		Transcript:    result.Transcript,
		DurationSec:   result.Profile.DurationSeconds,
		QualityScore:  result.Profile.SignalQualityScore,
		Category:      string(result.Profile.Category),
		ElapsedSec:    result.TotalElapsedSeconds,
		Attempts:      result.Attempts,
		TotalAttempts: result.TotalAttempts(),
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return entry, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return entry, fmt.Errorf("open recovery log: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return entry, fmt.Errorf("encode log entry: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return entry, fmt.Errorf("append log entry: %w", err)
	}
	return entry, nil
}

// Entries reads the full history, skipping lines that fail to decode so
// one corrupt record cannot poison reporting.
func (l *Log) Entries() ([]Entry, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open recovery log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("read recovery log: %w", err)
	}
	return entries, nil
}
