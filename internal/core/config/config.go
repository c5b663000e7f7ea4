package config

import (
	"time"

	redisq "github.com/voxmend/voxmend/internal/infra/redisq"
	"github.com/voxmend/voxmend/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig    `yaml:"server"`
	Logging  LoggingConfig   `yaml:"logging"`
	Stats    StatsConfig     `yaml:"stats"`
	Recovery RecoveryConfig  `yaml:"recovery"`
	Backends []BackendConfig `yaml:"backends"`
	Redis    redisq.Config   `yaml:"redis"`
	Database postgres.Config `yaml:"database"`
}

// ServerConfig holds ops HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StatsConfig holds backend performance store settings.
type StatsConfig struct {
	Path string `yaml:"path"` // JSON file backing the per-backend stats
}

// RecoveryConfig holds recovery pipeline settings.
type RecoveryConfig struct {
	Dir                  string        `yaml:"dir"`                     // where recovered audio is copied
	LogPath              string        `yaml:"log_path"`                // append-only JSONL recovery log
	ScanDirs             []string      `yaml:"scan_dirs"`               // temp/intake dirs searched for lost audio
	ScanPatterns         []string      `yaml:"scan_patterns"`           // filename globs for lost audio
	MaxAge               time.Duration `yaml:"max_age"`                 // how far back the scanner looks
	MaxRetriesPerBackend int           `yaml:"max_retries_per_backend"` // per-backend attempt budget
}

// BackendKind selects the transcription backend implementation.
type BackendKind string

const (
	KindOpenAI     BackendKind = "openai"
	KindWhisperCLI BackendKind = "whisper-cli"
	KindRemote     BackendKind = "remote"
)

// BackendConfig holds settings for one named transcription backend.
type BackendConfig struct {
	Name  string      `yaml:"name"`
	Kind  BackendKind `yaml:"kind"`
	Class string      `yaml:"class"` // short, medium, cloud; "" = no heuristic

	// Kind-specific settings.
	APIKey    string `yaml:"api_key"`    // openai
	Model     string `yaml:"model"`      // openai, remote
	ModelPath string `yaml:"model_path"` // whisper-cli
	Threads   int    `yaml:"threads"`    // whisper-cli
	Language  string `yaml:"language"`   // whisper-cli, openai
	BaseURL   string `yaml:"base_url"`   // remote
	Token     string `yaml:"token"`      // remote
}
