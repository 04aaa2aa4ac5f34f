package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"papertrade/internal/domain"
)

// PgSettingsStore implements domain.SettingsStore on PostgreSQL. The
// configuration lives in a single JSONB row.
type PgSettingsStore struct {
	db *pgxpool.Pool
}

// NewPgSettingsStore creates a new PostgreSQL-backed settings store.
func NewPgSettingsStore(db *pgxpool.Pool) domain.SettingsStore {
	return &PgSettingsStore{db: db}
}

// Get retrieves the current settings.
func (r *PgSettingsStore) Get(ctx context.Context) (domain.Settings, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Settings{}, domain.ErrNoSettings
		}
		return domain.Settings{}, fmt.Errorf("failed to query settings: %w", err)
	}

	var s domain.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Put replaces the current settings.
func (r *PgSettingsStore) Put(ctx context.Context, s domain.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if _, err := r.db.Exec(ctx, `
		INSERT INTO settings (id, data, updated_at)
		VALUES (1, $1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = CURRENT_TIMESTAMP
	`, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
