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

// PgLedgerStore implements domain.LedgerStore on PostgreSQL. Save
// replaces the whole snapshot inside one transaction, so readers never
// observe a ledger that is half old, half new.
type PgLedgerStore struct {
	db *pgxpool.Pool
}

// NewPgLedgerStore creates a new PostgreSQL-backed ledger store.
func NewPgLedgerStore(db *pgxpool.Pool) domain.LedgerStore {
	return &PgLedgerStore{db: db}
}

// LoadOpen retrieves all open trades, oldest entry first.
func (r *PgLedgerStore) LoadOpen(ctx context.Context) ([]domain.OpenTrade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, side, qty, entry_price, notional_usdc, entry_time
		FROM open_trades
		ORDER BY entry_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.OpenTrade
	for rows.Next() {
		var t domain.OpenTrade
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.EntryPrice, &t.NotionalUSDC, &t.EntryTime); err != nil {
			return nil, fmt.Errorf("failed to scan open trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open trades: %w", err)
	}
	return trades, nil
}

// LoadClosed retrieves the closed-trade history, newest first.
func (r *PgLedgerStore) LoadClosed(ctx context.Context) ([]domain.ClosedTrade, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, symbol, side, qty, entry_price, exit_price, notional_usdc,
		       pnl_usdc, pnl_pct, entry_time, exit_time, duration_sec
		FROM closed_trades
		ORDER BY exit_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.ClosedTrade
	for rows.Next() {
		var t domain.ClosedTrade
		if err := rows.Scan(
			&t.ID, &t.Symbol, &t.Side, &t.Qty, &t.EntryPrice, &t.ExitPrice,
			&t.NotionalUSDC, &t.PnLUSDC, &t.PnLPct, &t.EntryTime, &t.ExitTime, &t.DurationSec,
		); err != nil {
			return nil, fmt.Errorf("failed to scan closed trade: %w", err)
		}
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed trades: %w", err)
	}
	return trades, nil
}

// LoadExposure retrieves the exposure feedback state. A missing row is
// a fresh zero state, not an error.
func (r *PgLedgerStore) LoadExposure(ctx context.Context) (domain.ExposureState, error) {
	var state domain.ExposureState
	err := r.db.QueryRow(ctx, `
		SELECT base_limit_usdc, adjustment_usdc, realized_pnl_usdc
		FROM exposure_state
		WHERE id = 1
	`).Scan(&state.BaseLimitUSDC, &state.AdjustmentUSDC, &state.RealizedPnLUSDC)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExposureState{}, nil
		}
		return domain.ExposureState{}, fmt.Errorf("failed to query exposure state: %w", err)
	}
	return state, nil
}

// LoadSummary retrieves the last persisted summary projection.
func (r *PgLedgerStore) LoadSummary(ctx context.Context) (domain.Summary, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `SELECT data FROM summary_state WHERE id = 1`).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Summary{}, nil
		}
		return domain.Summary{}, fmt.Errorf("failed to query summary: %w", err)
	}

	var sum domain.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return sum, nil
}

// Save replaces the persisted snapshot in a single transaction.
func (r *PgLedgerStore) Save(ctx context.Context, open []domain.OpenTrade, closed []domain.ClosedTrade, exposure domain.ExposureState, summary domain.Summary) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM open_trades`); err != nil {
		return fmt.Errorf("failed to clear open trades: %w", err)
	}
	for _, t := range open {
		if _, err := tx.Exec(ctx, `
			INSERT INTO open_trades (id, symbol, side, qty, entry_price, notional_usdc, entry_time)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, t.ID, t.Symbol, t.Side, t.Qty, t.EntryPrice, t.NotionalUSDC, t.EntryTime); err != nil {
			return fmt.Errorf("failed to insert open trade %s: %w", t.Symbol, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM closed_trades`); err != nil {
		return fmt.Errorf("failed to clear closed trades: %w", err)
	}
	for _, t := range closed {
		if _, err := tx.Exec(ctx, `
			INSERT INTO closed_trades (id, symbol, side, qty, entry_price, exit_price,
				notional_usdc, pnl_usdc, pnl_pct, entry_time, exit_time, duration_sec)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, t.ID, t.Symbol, t.Side, t.Qty, t.EntryPrice, t.ExitPrice,
			t.NotionalUSDC, t.PnLUSDC, t.PnLPct, t.EntryTime, t.ExitTime, t.DurationSec); err != nil {
			return fmt.Errorf("failed to insert closed trade %s: %w", t.ID, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO exposure_state (id, base_limit_usdc, adjustment_usdc, realized_pnl_usdc, updated_at)
		VALUES (1, $1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			base_limit_usdc = EXCLUDED.base_limit_usdc,
			adjustment_usdc = EXCLUDED.adjustment_usdc,
			realized_pnl_usdc = EXCLUDED.realized_pnl_usdc,
			updated_at = CURRENT_TIMESTAMP
	`, exposure.BaseLimitUSDC, exposure.AdjustmentUSDC, exposure.RealizedPnLUSDC); err != nil {
		return fmt.Errorf("failed to upsert exposure state: %w", err)
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO summary_state (id, data, updated_at)
		VALUES (1, $1, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = CURRENT_TIMESTAMP
	`, data); err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ledger transaction: %w", err)
	}
	return nil
}
