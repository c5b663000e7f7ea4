package control

import (
	"path/filepath"
	"testing"

	"github.com/voxmend/voxmend/internal/core/config"
	"github.com/voxmend/voxmend/internal/stability"
)

func testConfig(t *testing.T) *config.AppConfig {
	dir := t.TempDir()
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Stats:  config.StatsConfig{Path: filepath.Join(dir, "stats.json")},
		Recovery: config.RecoveryConfig{
			Dir:          filepath.Join(dir, "recovered"),
			LogPath:      filepath.Join(dir, "log.jsonl"),
			ScanDirs:     []string{dir},
			ScanPatterns: []string{"tmp_*.wav"},
		},
		Backends: []config.BackendConfig{
			{Name: "local", Kind: config.KindWhisperCLI, Class: "short", ModelPath: "/models/base.bin"},
			{Name: "cloud", Kind: config.KindOpenAI, Class: "cloud", APIKey: "test-key"},
		},
	}
}

func TestNewApp_WiresWithoutExternalServices(t *testing.T) {
	app, err := NewApp(testConfig(t), nil)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	defer app.closePartial()

	if app.Orchestrator() == nil || app.Manager() == nil || app.Scanner() == nil {
		t.Fatal("App components not wired")
	}
	if app.Queue() == nil {
		t.Fatal("Expected in-memory queue without Redis config")
	}
	if app.db != nil || app.redisClient != nil {
		t.Error("No external clients expected")
	}
}

func TestNewApp_RequiresBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backends = nil
	if _, err := NewApp(cfg, nil); err == nil {
		t.Fatal("Expected error with no backends")
	}
}

func TestBackendClasses(t *testing.T) {
	classes := backendClasses([]config.BackendConfig{
		{Name: "a", Class: "short"},
		{Name: "b", Class: "medium"},
		{Name: "c", Class: "cloud"},
		{Name: "d", Class: ""},
		{Name: "e", Class: "bogus"},
	})

	if classes["a"] != stability.ClassShortAudio ||
		classes["b"] != stability.ClassMediumAudio ||
		classes["c"] != stability.ClassCloudFallback {
		t.Errorf("Class mapping wrong: %v", classes)
	}
	if _, ok := classes["d"]; ok {
		t.Error("Empty class should have no heuristic")
	}
	if _, ok := classes["e"]; ok {
		t.Error("Unknown class should have no heuristic")
	}
}
