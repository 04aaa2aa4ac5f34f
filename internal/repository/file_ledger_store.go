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

// ledgerSnapshot is the on-disk shape of the whole ledger. Keeping the
// open trades, closed history, exposure and summary in one document
// means one rename replaces all of them together.
type ledgerSnapshot struct {
	Open     []domain.OpenTrade   `json:"open_trades"`
	Closed   []domain.ClosedTrade `json:"closed_trades"`
	Exposure domain.ExposureState `json:"exposure_state"`
	Summary  domain.Summary       `json:"summary"`
}

// FileLedgerStore implements domain.LedgerStore on a single JSON file,
// written through a temp file and an atomic rename. It is the default
// store when no database is configured.
type FileLedgerStore struct {
	path string
	mu   sync.Mutex
}

// NewFileLedgerStore creates a file-backed ledger store under dir.
func NewFileLedgerStore(dir string) (*FileLedgerStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileLedgerStore{path: filepath.Join(dir, "ledger.json")}, nil
}

// LoadOpen retrieves all open trades.
func (s *FileLedgerStore) LoadOpen(context.Context) ([]domain.OpenTrade, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	return snap.Open, nil
}

// LoadClosed retrieves the closed-trade history, newest first.
func (s *FileLedgerStore) LoadClosed(context.Context) ([]domain.ClosedTrade, error) {
	snap, err := s.read()
	if err != nil {
		return nil, err
	}
	return snap.Closed, nil
}

// LoadExposure retrieves the exposure feedback state.
func (s *FileLedgerStore) LoadExposure(context.Context) (domain.ExposureState, error) {
	snap, err := s.read()
	if err != nil {
		return domain.ExposureState{}, err
	}
	return snap.Exposure, nil
}

// LoadSummary retrieves the last persisted summary projection.
func (s *FileLedgerStore) LoadSummary(context.Context) (domain.Summary, error) {
	snap, err := s.read()
	if err != nil {
		return domain.Summary{}, err
	}
	return snap.Summary, nil
}

// Save writes the whole snapshot atomically.
func (s *FileLedgerStore) Save(_ context.Context, open []domain.OpenTrade, closed []domain.ClosedTrade, exposure domain.ExposureState, summary domain.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ledgerSnapshot{Open: open, Closed: closed, Exposure: exposure, Summary: summary}
	return writeJSONAtomic(s.path, snap)
}

// read loads the snapshot from disk. A missing file is an empty ledger.
func (s *FileLedgerStore) read() (ledgerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap ledgerSnapshot
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return snap, nil
		}
		return snap, fmt.Errorf("failed to read ledger file: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal ledger file: %w", err)
	}
	return snap, nil
}

// writeJSONAtomic marshals v and replaces path via temp file + rename,
// so a crash mid-write leaves the previous content intact.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
