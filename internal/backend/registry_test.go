package backend

import (
	"testing"

	"github.com/voxmend/voxmend/internal/core/config"
)

func TestBuildMap(t *testing.T) {
	cfgs := []config.BackendConfig{
		{Name: "whisper-local", Kind: config.KindWhisperCLI, ModelPath: "/models/ggml-small.bin"},
		{Name: "whisper-remote", Kind: config.KindRemote, BaseURL: "http://localhost:9000"},
		{Name: "openai-api", Kind: config.KindOpenAI, APIKey: "sk-test"},
	}

	m, names, err := BuildMap(cfgs)
	if err != nil {
		t.Fatalf("BuildMap failed: %v", err)
	}
	if len(m) != 3 {
		t.Errorf("Expected 3 backends, got %d", len(m))
	}

	// Config order must be preserved for ranking tie-breaks.
	want := []string{"whisper-local", "whisper-remote", "openai-api"}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("names[%d] = %s, want %s", i, names[i], name)
		}
		if m[name].Name() != name {
			t.Errorf("Backend %s reports name %s", name, m[name].Name())
		}
	}
}

func TestBuildMap_DuplicateName(t *testing.T) {
	cfgs := []config.BackendConfig{
		{Name: "dup", Kind: config.KindRemote, BaseURL: "http://a"},
		{Name: "dup", Kind: config.KindRemote, BaseURL: "http://b"},
	}
	if _, _, err := BuildMap(cfgs); err == nil {
		t.Error("Expected error for duplicate backend name")
	}
}

func TestBuildMap_UnknownKind(t *testing.T) {
	cfgs := []config.BackendConfig{{Name: "x", Kind: "quantum"}}
	if _, _, err := BuildMap(cfgs); err == nil {
		t.Error("Expected error for unknown backend kind")
	}
}
