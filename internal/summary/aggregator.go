// Package summary derives the trading summary from the closed-trade
// history. The projection is always rebuilt from scratch so it can
// never drift from the ledger it describes.
package summary

import (
	"time"

	"papertrade/internal/domain"
)

// Compute rebuilds the summary from the full closed-trade history, the
// open-position count and the exposure state. now anchors the UTC day
// used for the today bucket.
func Compute(openCount int, closed []domain.ClosedTrade, cfg domain.Settings, state domain.ExposureState, now time.Time) domain.Summary {
	s := domain.Summary{
		OpenCount:                openCount,
		ClosedCount:              len(closed),
		BaseExposureUSDC:         state.BaseLimitUSDC,
		AdjustmentUSDC:           state.AdjustmentUSDC,
		EffectiveMaxUSDCExposure: state.EffectiveLimit(cfg.AutoAdjustExposure),
		ReinvestProfitPct:        cfg.ReinvestProfitPct,
	}
	if len(closed) == 0 {
		return s
	}

	today := now.UTC().Truncate(24 * time.Hour)
	wins := 0
	for _, t := range closed {
		s.RealizedPnLUSDCTotal += t.PnLUSDC
		if t.PnLUSDC > 0 {
			wins++
		}
		if t.ExitTime.UTC().Truncate(24 * time.Hour).Equal(today) {
			s.RealizedPnLUSDCToday += t.PnLUSDC
		}
	}

	s.WinRate = 100.0 * float64(wins) / float64(len(closed))
	s.AvgPnLUSDC = s.RealizedPnLUSDCTotal / float64(len(closed))
	s.MaxDrawdownUSDC = maxDrawdown(closed)
	return s
}

// maxDrawdown walks the closed trades in chronological order and tracks
// the deepest peak-to-trough decline of the cumulative PnL curve. The
// history is stored newest first, so the walk runs back to front. The
// result is reported as a non-negative magnitude.
func maxDrawdown(closed []domain.ClosedTrade) float64 {
	cum, peak, worst := 0.0, 0.0, 0.0
	for i := len(closed) - 1; i >= 0; i-- {
		cum += closed[i].PnLUSDC
		if cum > peak {
			peak = cum
		}
		if dd := cum - peak; dd < worst {
			worst = dd
		}
	}
	return -worst
}
