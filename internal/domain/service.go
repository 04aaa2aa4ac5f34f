package domain

import "context"

// MarketDataProvider supplies recent market history for signal
// evaluation. Implementations may fail per symbol; the engine records
// the failure and moves on.
type MarketDataProvider interface {
	// ClosingPrices returns up to limit closing prices for the symbol
	// and timeframe, ordered oldest to newest (most recent last)
	ClosingPrices(ctx context.Context, symbol, timeframe string, limit int) ([]float64, error)
}
