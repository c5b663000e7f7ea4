package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	home, _ := os.UserHomeDir()
	baseDir := filepath.Join(home, ".voxmend")

	if cfg.Recovery.Dir == "" {
		cfg.Recovery.Dir = filepath.Join(baseDir, "recovery")
	}
	if cfg.Recovery.LogPath == "" {
		cfg.Recovery.LogPath = filepath.Join(cfg.Recovery.Dir, "recovery_log.jsonl")
	}
	if cfg.Stats.Path == "" {
		cfg.Stats.Path = filepath.Join(baseDir, "backend_stats.json")
	}
	if cfg.Recovery.MaxRetriesPerBackend == 0 {
		cfg.Recovery.MaxRetriesPerBackend = 2
	}
	if cfg.Recovery.MaxAge == 0 {
		cfg.Recovery.MaxAge = 24 * time.Hour
	}
	if len(cfg.Recovery.ScanDirs) == 0 {
		cfg.Recovery.ScanDirs = []string{os.TempDir()}
	}
	if len(cfg.Recovery.ScanPatterns) == 0 {
		cfg.Recovery.ScanPatterns = []string{
			"tmp_*.wav",
			"temp_*.wav",
			"intake_*.wav",
			"recording_*.wav",
		}
	}
}
