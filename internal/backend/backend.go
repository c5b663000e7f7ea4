// Package backend defines the transcription capability consumed by the
// recovery orchestrator and its concrete implementations.
package backend

import "context"

// Backend is a named transcription capability. Transcribe may fail or
// block indefinitely; callers own timeout enforcement.
type Backend interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Map is the injected capability set keyed by backend name.
type Map map[string]Backend

// Names returns the backend names in no particular order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// Func adapts a plain function into a Backend, mainly for tests.
type Func struct {
	BackendName string
	Fn          func(ctx context.Context, audioPath string) (string, error)
}

func (f Func) Name() string { return f.BackendName }

func (f Func) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return f.Fn(ctx, audioPath)
}
