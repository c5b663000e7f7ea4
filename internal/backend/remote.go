package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// RemoteBackend calls a self-hosted Whisper HTTP server. It sends the
// audio file as a multipart upload and parses the segment list from the
// JSON response.
type RemoteBackend struct {
	name    string
	baseURL string
	token   string
	model   string
	client  *http.Client
}

// NewRemoteBackend creates a remote whisper-server backend. The client
// carries no timeout of its own; the attempt executor bounds each call.
func NewRemoteBackend(name, baseURL, token, model string) *RemoteBackend {
	if model == "" {
		model = "small"
	}
	return &RemoteBackend{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		model:   model,
		client:  &http.Client{},
	}
}

// Name returns the configured backend name.
func (b *RemoteBackend) Name() string { return b.name }

type remoteResponse struct {
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
	Text string `json:"text"`
}

// Transcribe uploads the audio file and joins the returned segments.
func (b *RemoteBackend) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("model", b.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/transcribe", &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("remote whisper returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Segments) == 0 {
		return strings.TrimSpace(parsed.Text), nil
	}
	parts := make([]string, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
