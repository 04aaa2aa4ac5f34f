package domain

// ExposureState tracks the realized-PnL feedback applied to the base
// exposure limit. AdjustmentUSDC starts at zero and accumulates across
// ticks; it is only zeroed by an explicit reset request, never by the
// engine itself.
type ExposureState struct {
	BaseLimitUSDC   float64 `json:"base_limit_usdc"`
	AdjustmentUSDC  float64 `json:"adjustment_usdc"`
	RealizedPnLUSDC float64 `json:"realized_pnl_total_usdc"`
}

// EffectiveLimit returns the exposure ceiling available for new
// positions. With auto-adjust disabled the base limit applies as-is.
// The result is clamped at zero: a deep enough drawdown makes no new
// position affordable, which is the intended brake.
func (s ExposureState) EffectiveLimit(autoAdjust bool) float64 {
	if !autoAdjust {
		return s.BaseLimitUSDC
	}
	limit := s.BaseLimitUSDC + s.AdjustmentUSDC
	if limit < 0 {
		return 0
	}
	return limit
}

// ApplyClose feeds one realized PnL into the feedback loop. Profit is
// reinvested only at reinvestPct percent; a loss tightens the
// adjustment in full, so capacity decays asymmetrically. With
// auto-adjust disabled the adjustment never moves.
func (s *ExposureState) ApplyClose(pnl, reinvestPct float64, autoAdjust bool) {
	s.RealizedPnLUSDC += pnl
	if !autoAdjust {
		return
	}
	if pnl >= 0 {
		s.AdjustmentUSDC += pnl * reinvestPct / 100.0
	} else {
		s.AdjustmentUSDC += pnl
	}
}
