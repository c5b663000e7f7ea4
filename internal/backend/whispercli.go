package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// WhisperCLIBackend shells out to a local whisper.cpp CLI binary.
// Fast on-device transcription, best suited to short clips.
type WhisperCLIBackend struct {
	name      string
	modelPath string
	language  string
	threads   int
}

// NewWhisperCLIBackend creates a whisper.cpp CLI backend.
func NewWhisperCLIBackend(name, modelPath, language string, threads int) *WhisperCLIBackend {
	return &WhisperCLIBackend{
		name:      name,
		modelPath: modelPath,
		language:  language,
		threads:   threads,
	}
}

// Name returns the configured backend name.
func (b *WhisperCLIBackend) Name() string { return b.name }

// Transcribe runs whisper-cli against the audio file.
func (b *WhisperCLIBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(b.modelPath); os.IsNotExist(err) {
		return "", fmt.Errorf("model file not found: %s", b.modelPath)
	}

	cliPath, err := exec.LookPath("whisper-cli")
	if err != nil {
		return "", fmt.Errorf("whisper-cli not found: install whisper.cpp first")
	}

	lang := b.language
	if lang == "" {
		lang = "auto"
	}

	args := []string{
		"-m", b.modelPath,
		"-l", lang,
		"-nt", // no timestamps
		"-np", // no progress
		"-f", audioPath,
	}
	if b.threads > 0 {
		args = append(args, "-t", fmt.Sprintf("%d", b.threads))
	}

	cmd := exec.CommandContext(ctx, cliPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper-cli failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}
