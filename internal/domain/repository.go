package domain

import "context"

// LedgerStore defines durable persistence for trades, exposure state
// and the summary projection. The engine loads a snapshot at the start
// of a tick and writes everything back through a single Save call;
// torn state between the individual collections is the store's problem,
// not the engine's.
type LedgerStore interface {
	// LoadOpen retrieves all open trades
	LoadOpen(ctx context.Context) ([]OpenTrade, error)

	// LoadClosed retrieves the closed-trade history, newest first
	LoadClosed(ctx context.Context) ([]ClosedTrade, error)

	// LoadExposure retrieves the exposure feedback state
	LoadExposure(ctx context.Context) (ExposureState, error)

	// LoadSummary retrieves the last persisted summary projection
	LoadSummary(ctx context.Context) (Summary, error)

	// Save persists open trades, closed trades, exposure state and
	// summary as one atomic unit
	Save(ctx context.Context, open []OpenTrade, closed []ClosedTrade, exposure ExposureState, summary Summary) error
}

// SettingsStore defines persistence for the risk configuration.
type SettingsStore interface {
	// Get retrieves the current settings; ErrNoSettings when none were
	// ever saved
	Get(ctx context.Context) (Settings, error)

	// Put replaces the current settings
	Put(ctx context.Context, s Settings) error
}
