package domain

import (
	"time"

	"github.com/google/uuid"
)

// The engine is long-only: every position is opened by a BUY signal and
// closed by a later SELL signal for the same symbol. SELL never opens a
// short position.
const SideBuy = "BUY"

// OpenTrade represents a currently open paper position. At most one
// open trade may exist per symbol.
type OpenTrade struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Qty          float64   `json:"qty"`
	EntryPrice   float64   `json:"entry_price"`
	NotionalUSDC float64   `json:"notional_usdc"`
	EntryTime    time.Time `json:"entry_time"`
}

// NewOpenTrade creates an open position with a fresh ID.
func NewOpenTrade(symbol string, qty, entryPrice, notional float64, entryTime time.Time) OpenTrade {
	return OpenTrade{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Side:         SideBuy,
		Qty:          qty,
		EntryPrice:   entryPrice,
		NotionalUSDC: notional,
		EntryTime:    entryTime,
	}
}

// ClosedTrade is a settled position. It is immutable once created and
// is only ever appended to the closed-trade history.
type ClosedTrade struct {
	ID           string    `json:"id"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"`
	Qty          float64   `json:"qty"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	NotionalUSDC float64   `json:"notional_usdc"`
	PnLUSDC      float64   `json:"pnl_usdc"`
	PnLPct       float64   `json:"pnl_pct"`
	EntryTime    time.Time `json:"entry_time"`
	ExitTime     time.Time `json:"exit_time"`
	DurationSec  float64   `json:"duration_sec"`
}

// Settle converts an open trade into its closed form at the given exit
// price. PnL is qty * (exit - entry) for the BUY side.
func Settle(t OpenTrade, exitPrice float64, exitTime time.Time) ClosedTrade {
	pnl := t.Qty * (exitPrice - t.EntryPrice)

	notional := t.NotionalUSDC
	if notional < 1e-9 {
		notional = 1e-9
	}

	duration := exitTime.Sub(t.EntryTime).Seconds()
	if duration < 0 {
		duration = 0
	}

	return ClosedTrade{
		ID:           t.ID,
		Symbol:       t.Symbol,
		Side:         t.Side,
		Qty:          t.Qty,
		EntryPrice:   t.EntryPrice,
		ExitPrice:    exitPrice,
		NotionalUSDC: t.NotionalUSDC,
		PnLUSDC:      pnl,
		PnLPct:       pnl / notional * 100.0,
		EntryTime:    t.EntryTime,
		ExitTime:     exitTime,
		DurationSec:  duration,
	}
}
