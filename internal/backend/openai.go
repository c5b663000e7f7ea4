package backend

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend transcribes through the OpenAI Whisper API. It is the
// cloud fallback for poor-quality or very long clips that local
// backends struggle with.
type OpenAIBackend struct {
	name     string
	client   *openai.Client
	model    string
	language string
}

// NewOpenAIBackend creates an OpenAI API backend.
func NewOpenAIBackend(name, apiKey, model, language string) *OpenAIBackend {
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIBackend{
		name:     name,
		client:   openai.NewClient(apiKey),
		model:    model,
		language: language,
	}
}

// Name returns the configured backend name.
func (b *OpenAIBackend) Name() string { return b.name }

// Transcribe uploads the audio file and returns the transcription text.
func (b *OpenAIBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	req := openai.AudioRequest{
		Model:    b.model,
		FilePath: audioPath,
		Language: b.language,
	}

	resp, err := b.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
