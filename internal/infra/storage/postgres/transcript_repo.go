package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// Transcript is a stored transcript row.
type Transcript struct {
	ID             string
	AudioPath      string
	BackendUsed    string
	Transcript     string
	AttemptCount   int
	ElapsedSeconds float64
	CreatedAt      time.Time
}

// TranscriptRepo persists successful recovery results.
type TranscriptRepo struct {
	db *DB
}

// NewTranscriptRepo creates a new PostgreSQL transcript repository.
func NewTranscriptRepo(db *DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

// Save stores the transcript from a successful recovery result.
func (r *TranscriptRepo) Save(ctx context.Context, audioPath string, result *domain.RecoveryResult) (string, error) {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transcripts (id, audio_path, backend_used, transcript, attempt_count, elapsed_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, audioPath, result.BackendUsed, result.Transcript,
		len(result.Attempts), result.TotalElapsedSeconds,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save transcript: %w", err)
	}
	return id, nil
}

// GetByAudioPath returns the most recent transcript for an audio path.
func (r *TranscriptRepo) GetByAudioPath(ctx context.Context, audioPath string) (*Transcript, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, audio_path, backend_used, transcript, attempt_count, elapsed_seconds, created_at
		FROM transcripts
		WHERE audio_path = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		audioPath,
	)

	var t Transcript
	err := row.Scan(&t.ID, &t.AudioPath, &t.BackendUsed, &t.Transcript,
		&t.AttemptCount, &t.ElapsedSeconds, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &t, nil
}

// ListRecent returns the most recent transcripts, newest first.
func (r *TranscriptRepo) ListRecent(ctx context.Context, limit int) ([]*Transcript, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, audio_path, backend_used, transcript, attempt_count, elapsed_seconds, created_at
		FROM transcripts
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var out []*Transcript
	for rows.Next() {
		var t Transcript
		if err := rows.Scan(&t.ID, &t.AudioPath, &t.BackendUsed, &t.Transcript,
			&t.AttemptCount, &t.ElapsedSeconds, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
