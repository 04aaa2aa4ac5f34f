package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"papertrade/internal/domain"
)

// closedAt builds a minimal closed trade for aggregation tests. The
// history convention is newest first, so callers list trades in that
// order.
func closedAt(pnl float64, exit time.Time) domain.ClosedTrade {
	return domain.ClosedTrade{ID: "t", Symbol: "BTCUSDC", Side: domain.SideBuy, PnLUSDC: pnl, ExitTime: exit}
}

func TestCompute_EmptyHistory(t *testing.T) {
	t.Parallel()

	cfg := domain.DefaultSettings()
	state := domain.ExposureState{BaseLimitUSDC: 100.0}

	s := Compute(0, nil, cfg, state, time.Now().UTC())

	assert.Equal(t, 0, s.ClosedCount)
	assert.Equal(t, 0.0, s.WinRate)
	assert.Equal(t, 0.0, s.AvgPnLUSDC)
	assert.Equal(t, 0.0, s.MaxDrawdownUSDC)
	assert.Equal(t, 0.0, s.RealizedPnLUSDCTotal)
	assert.InDelta(t, 100.0, s.EffectiveMaxUSDCExposure, 1e-9)
}

func TestCompute_WinRateAndAverage(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	closed := []domain.ClosedTrade{
		closedAt(6.0, now),
		closedAt(-2.0, now.Add(-time.Hour)),
		closedAt(2.0, now.Add(-2*time.Hour)),
		closedAt(-2.0, now.Add(-3*time.Hour)),
	}

	s := Compute(1, closed, domain.DefaultSettings(), domain.ExposureState{}, now)

	assert.Equal(t, 1, s.OpenCount)
	assert.Equal(t, 4, s.ClosedCount)
	assert.InDelta(t, 4.0, s.RealizedPnLUSDCTotal, 1e-9)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.InDelta(t, 1.0, s.AvgPnLUSDC, 1e-9)
}

func TestCompute_TodayBucketUsesUTCDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 0, 30, 0, 0, time.UTC)
	closed := []domain.ClosedTrade{
		closedAt(3.0, now.Add(-10*time.Minute)),           // today
		closedAt(5.0, now.Add(-2*time.Hour)),              // yesterday 22:30 UTC
		closedAt(1.0, now.Add(-24*time.Hour*7)),           // last week
		closedAt(2.0, time.Date(2026, 8, 29, 23, 59, 0, 0, time.UTC)), // today, later
	}

	s := Compute(0, closed, domain.DefaultSettings(), domain.ExposureState{}, now)

	assert.InDelta(t, 11.0, s.RealizedPnLUSDCTotal, 1e-9)
	assert.InDelta(t, 5.0, s.RealizedPnLUSDCToday, 1e-9)
}

func TestCompute_MaxDrawdown(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	// Chronological PnL: +10, -4, -8, +20  → cum 10, 6, -2, 18.
	// Peak 10 before the trough at -2 gives a drawdown of 12.
	closed := []domain.ClosedTrade{
		closedAt(20.0, now),
		closedAt(-8.0, now.Add(-time.Hour)),
		closedAt(-4.0, now.Add(-2*time.Hour)),
		closedAt(10.0, now.Add(-3*time.Hour)),
	}

	s := Compute(0, closed, domain.DefaultSettings(), domain.ExposureState{}, now)
	assert.InDelta(t, 12.0, s.MaxDrawdownUSDC, 1e-9)
}

func TestCompute_MonotoneGainsHaveZeroDrawdown(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	closed := []domain.ClosedTrade{
		closedAt(1.0, now),
		closedAt(2.0, now.Add(-time.Hour)),
		closedAt(3.0, now.Add(-2*time.Hour)),
	}

	s := Compute(0, closed, domain.DefaultSettings(), domain.ExposureState{}, now)
	assert.Equal(t, 0.0, s.MaxDrawdownUSDC)
}

func TestCompute_MatchesFreshRecomputation(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	closed := []domain.ClosedTrade{
		closedAt(5.0, now),
		closedAt(-3.0, now.Add(-time.Hour)),
	}
	cfg := domain.DefaultSettings()
	state := domain.ExposureState{BaseLimitUSDC: 100.0, AdjustmentUSDC: -3.0}

	first := Compute(2, closed, cfg, state, now)
	second := Compute(2, closed, cfg, state, now)
	assert.Equal(t, first, second)
}
