package domain

import "time"

// Summary is a pure projection over the closed-trade history and the
// exposure state. It is recomputed wholesale after every ledger
// mutation and must always equal a fresh recomputation; it is never
// patched incrementally.
type Summary struct {
	OpenCount                int        `json:"open_count"`
	ClosedCount              int        `json:"closed_count"`
	RealizedPnLUSDCTotal     float64    `json:"realized_pnl_usdc_total"`
	RealizedPnLUSDCToday     float64    `json:"realized_pnl_usdc_today"`
	WinRate                  float64    `json:"win_rate"`
	AvgPnLUSDC               float64    `json:"avg_pnl_usdc"`
	MaxDrawdownUSDC          float64    `json:"max_drawdown_usdc"`
	BaseExposureUSDC         float64    `json:"base_exposure_usdc"`
	AdjustmentUSDC           float64    `json:"adjustment_usdc"`
	EffectiveMaxUSDCExposure float64    `json:"effective_max_usdc_exposure"`
	ReinvestProfitPct        float64    `json:"reinvest_profit_pct"`
	LastTickTime             *time.Time `json:"last_tick_time,omitempty"`
}

// TickResult reports the outcome of one tick to the caller. Recoverable
// per-symbol fetch failures are accumulated in Errors rather than
// aborting the tick.
type TickResult struct {
	Processed      int       `json:"processed"`
	Opened         int       `json:"opened"`
	Closed         int       `json:"closed"`
	Errors         []string  `json:"errors"`
	EffectiveLimit float64   `json:"effective_limit"`
	OpenNow        int       `json:"open_now"`
	LastTickTime   time.Time `json:"last_tick_time"`
}
