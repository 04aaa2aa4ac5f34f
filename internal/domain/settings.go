package domain

import (
	"fmt"
	"strings"
)

// TradeMode controls whether the engine mutates the ledger
type TradeMode string

// TradeMode constants. Live execution is out of scope for the tick
// engine: any mode other than paper makes the tick a no-op.
const (
	ModePaper TradeMode = "paper"
	ModeLive  TradeMode = "live"
)

// Settings is the risk/exposure configuration. It is read-mostly and
// externally editable through the settings API; the tick engine takes a
// fresh snapshot at the start of every tick and never writes it back.
type Settings struct {
	TradeMode           TradeMode `json:"trade_mode"`
	MaxUSDCExposure     float64   `json:"max_usdc_exposure"`
	MaxPositionSizeUSDC float64   `json:"max_position_size_usdc"`
	MaxOpenPositions    int       `json:"max_open_positions"`
	RiskPerTradePct     float64   `json:"risk_per_trade_pct"`
	MaxDailyLossUSDC    float64   `json:"max_daily_loss_usdc"`
	ReturnToUSDC        bool      `json:"return_to_usdc"`
	NewsPauseEnabled    bool      `json:"news_pause_enabled"`
	AllowedSymbols      []string  `json:"allowed_symbols"`
	Timeframe           string    `json:"timeframe"`
	ReinvestProfitPct   float64   `json:"reinvest_profit_pct"`
	AutoAdjustExposure  bool      `json:"auto_adjust_exposure"`
}

// DefaultSettings returns the configuration used before the first PUT.
func DefaultSettings() Settings {
	return Settings{
		TradeMode:           ModePaper,
		MaxUSDCExposure:     100.0,
		MaxPositionSizeUSDC: 25.0,
		MaxOpenPositions:    1,
		RiskPerTradePct:     0.5,
		MaxDailyLossUSDC:    25.0,
		ReturnToUSDC:        true,
		NewsPauseEnabled:    true,
		AllowedSymbols:      []string{},
		Timeframe:           "1m",
		ReinvestProfitPct:   0.0,
		AutoAdjustExposure:  true,
	}
}

// Normalize upper-cases symbols and fills an empty timeframe.
func (s *Settings) Normalize() {
	for i, sym := range s.AllowedSymbols {
		s.AllowedSymbols[i] = strings.ToUpper(strings.TrimSpace(sym))
	}
	if s.Timeframe == "" {
		s.Timeframe = "1m"
	}
}

// Validate checks the numeric bounds before a settings update is accepted.
func (s Settings) Validate() error {
	if s.TradeMode != ModePaper && s.TradeMode != ModeLive {
		return fmt.Errorf("invalid trade mode: %q (must be paper or live)", s.TradeMode)
	}
	if s.MaxUSDCExposure < 0 {
		return fmt.Errorf("max_usdc_exposure must be >= 0")
	}
	if s.MaxPositionSizeUSDC < 0 {
		return fmt.Errorf("max_position_size_usdc must be >= 0")
	}
	if s.MaxOpenPositions < 0 {
		return fmt.Errorf("max_open_positions must be >= 0")
	}
	if s.RiskPerTradePct < 0 || s.RiskPerTradePct > 100 {
		return fmt.Errorf("risk_per_trade_pct must be within [0, 100]")
	}
	if s.MaxDailyLossUSDC < 0 {
		return fmt.Errorf("max_daily_loss_usdc must be >= 0")
	}
	if s.ReinvestProfitPct < 0 || s.ReinvestProfitPct > 100 {
		return fmt.Errorf("reinvest_profit_pct must be within [0, 100]")
	}
	return nil
}
