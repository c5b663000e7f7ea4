package stability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// FileStore persists backend stats as a JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed stat store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads all backend stats. A missing file is not an error: it
// returns an empty map, as on first run.
func (s *FileStore) Load() (map[string]domain.BackendStat, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]domain.BackendStat{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stats file: %w", err)
	}

	var stats map[string]domain.BackendStat
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("parse stats file: %w", err)
	}
	return stats, nil
}

// Save writes all backend stats atomically via temp file and rename.
func (s *FileStore) Save(stats map[string]domain.BackendStat) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create stats dir: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write stats file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace stats file: %w", err)
	}
	return nil
}
