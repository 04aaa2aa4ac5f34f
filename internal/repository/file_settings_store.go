package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"papertrade/internal/domain"
)

// FileSettingsStore implements domain.SettingsStore on a settings.json
// file next to the ledger snapshot.
type FileSettingsStore struct {
	path string
	mu   sync.Mutex
}

// NewFileSettingsStore creates a file-backed settings store under dir.
func NewFileSettingsStore(dir string) (*FileSettingsStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileSettingsStore{path: filepath.Join(dir, "settings.json")}, nil
}

// Get retrieves the stored settings. Returns domain.ErrNoSettings when
// nothing has been saved yet.
func (s *FileSettingsStore) Get(context.Context) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg domain.Settings
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, domain.ErrNoSettings
		}
		return cfg, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal settings file: %w", err)
	}
	return cfg, nil
}

// Put replaces the stored settings atomically.
func (s *FileSettingsStore) Put(_ context.Context, cfg domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSONAtomic(s.path, cfg)
}
