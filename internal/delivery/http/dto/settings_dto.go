package dto

import "papertrade/internal/domain"

// SettingsRequest is the PUT /settings payload. It mirrors the stored
// settings; the effective limit is computed, never accepted.
type SettingsRequest struct {
	TradeMode           string   `json:"trade_mode"`
	MaxUSDCExposure     float64  `json:"max_usdc_exposure"`
	MaxPositionSizeUSDC float64  `json:"max_position_size_usdc"`
	MaxOpenPositions    int      `json:"max_open_positions"`
	RiskPerTradePct     float64  `json:"risk_per_trade_pct"`
	MaxDailyLossUSDC    float64  `json:"max_daily_loss_usdc"`
	ReturnToUSDC        bool     `json:"return_to_usdc"`
	NewsPauseEnabled    bool     `json:"news_pause_enabled"`
	AllowedSymbols      []string `json:"allowed_symbols"`
	Timeframe           string   `json:"timeframe"`
	ReinvestProfitPct   float64  `json:"reinvest_profit_pct"`
	AutoAdjustExposure  bool     `json:"auto_adjust_exposure"`
}

// ToDomain converts the request into domain settings.
func (r SettingsRequest) ToDomain() domain.Settings {
	return domain.Settings{
		TradeMode:           domain.TradeMode(r.TradeMode),
		MaxUSDCExposure:     r.MaxUSDCExposure,
		MaxPositionSizeUSDC: r.MaxPositionSizeUSDC,
		MaxOpenPositions:    r.MaxOpenPositions,
		RiskPerTradePct:     r.RiskPerTradePct,
		MaxDailyLossUSDC:    r.MaxDailyLossUSDC,
		ReturnToUSDC:        r.ReturnToUSDC,
		NewsPauseEnabled:    r.NewsPauseEnabled,
		AllowedSymbols:      r.AllowedSymbols,
		Timeframe:           r.Timeframe,
		ReinvestProfitPct:   r.ReinvestProfitPct,
		AutoAdjustExposure:  r.AutoAdjustExposure,
	}
}

// SettingsResponse is the settings view returned by GET and PUT, with
// the effective limit computed from the current exposure state.
type SettingsResponse struct {
	domain.Settings
	EffectiveMaxUSDCExposure float64 `json:"effective_max_usdc_exposure"`
}
