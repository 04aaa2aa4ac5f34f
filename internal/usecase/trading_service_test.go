package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrade/internal/domain"
)

// fakeMarketData serves canned price series per symbol.
type fakeMarketData struct {
	prices map[string][]float64
	errs   map[string]error
}

func (f *fakeMarketData) ClosingPrices(_ context.Context, symbol, _ string, _ int) ([]float64, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	series, ok := f.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("no series for %s", symbol)
	}
	return series, nil
}

// memoryLedgerStore is an in-memory LedgerStore tracking Save calls.
type memoryLedgerStore struct {
	open     []domain.OpenTrade
	closed   []domain.ClosedTrade
	exposure domain.ExposureState
	summary  domain.Summary
	saves    int
	saveErr  error
}

func (m *memoryLedgerStore) LoadOpen(context.Context) ([]domain.OpenTrade, error) {
	return append([]domain.OpenTrade(nil), m.open...), nil
}

func (m *memoryLedgerStore) LoadClosed(context.Context) ([]domain.ClosedTrade, error) {
	return append([]domain.ClosedTrade(nil), m.closed...), nil
}

func (m *memoryLedgerStore) LoadExposure(context.Context) (domain.ExposureState, error) {
	return m.exposure, nil
}

func (m *memoryLedgerStore) LoadSummary(context.Context) (domain.Summary, error) {
	return m.summary, nil
}

func (m *memoryLedgerStore) Save(_ context.Context, open []domain.OpenTrade, closed []domain.ClosedTrade, exposure domain.ExposureState, summary domain.Summary) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.open = open
	m.closed = closed
	m.exposure = exposure
	m.summary = summary
	m.saves++
	return nil
}

// memorySettingsStore returns a fixed settings value, or ErrNoSettings
// when nil.
type memorySettingsStore struct {
	settings *domain.Settings
}

func (m *memorySettingsStore) Get(context.Context) (domain.Settings, error) {
	if m.settings == nil {
		return domain.Settings{}, domain.ErrNoSettings
	}
	return *m.settings, nil
}

func (m *memorySettingsStore) Put(_ context.Context, s domain.Settings) error {
	m.settings = &s
	return nil
}

// Price series helpers. 60 flat bars leave the SMA pair equal; the last
// bar decides the cross direction.
func flat(n int, price float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = price
	}
	return out
}

// crossSeries appends one deciding bar to 60 flat bars: a last value
// above base crosses upward (BUY), below base crosses downward (SELL).
func crossSeries(base, last float64) []float64 { return append(flat(60, base), last) }

func paperSettings(symbols ...string) *domain.Settings {
	s := domain.DefaultSettings()
	s.AllowedSymbols = symbols
	s.MaxUSDCExposure = 100.0
	s.MaxPositionSizeUSDC = 25.0
	s.MaxOpenPositions = 1
	s.ReinvestProfitPct = 50.0
	s.AutoAdjustExposure = true
	return &s
}

func newService(md *fakeMarketData, store *memoryLedgerStore, settings *domain.Settings) *TradingService {
	return NewTradingService(md, store, &memorySettingsStore{settings: settings})
}

func TestRunTick_NoSettingsIsReportedNoOp(t *testing.T) {
	t.Parallel()

	store := &memoryLedgerStore{}
	ts := newService(&fakeMarketData{}, store, nil)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"no settings"}, result.Errors)
	assert.Zero(t, result.Processed)
	assert.Zero(t, store.saves)
}

func TestRunTick_NonPaperModeIsNoOp(t *testing.T) {
	t.Parallel()

	settings := paperSettings("BTCUSDC")
	settings.TradeMode = domain.ModeLive

	store := &memoryLedgerStore{}
	ts := newService(&fakeMarketData{}, store, settings)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"trade mode is not paper"}, result.Errors)
	assert.Zero(t, store.saves)
}

func TestRunTick_NoSymbolsIsNoOp(t *testing.T) {
	t.Parallel()

	store := &memoryLedgerStore{}
	ts := newService(&fakeMarketData{}, store, paperSettings())

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"no symbols configured"}, result.Errors)
	assert.Zero(t, store.saves)
}

func TestRunTick_BuySignalOpensPosition(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 103.0),
	}}
	store := &memoryLedgerStore{}
	ts := newService(md, store, paperSettings("BTCUSDC"))

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Opened)
	assert.Equal(t, 0, result.Closed)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.OpenNow)
	assert.InDelta(t, 100.0, result.EffectiveLimit, 1e-9)
	assert.False(t, result.LastTickTime.IsZero())

	require.Len(t, store.open, 1)
	trade := store.open[0]
	assert.Equal(t, "BTCUSDC", trade.Symbol)
	assert.Equal(t, domain.SideBuy, trade.Side)
	assert.InDelta(t, 25.0, trade.NotionalUSDC, 1e-9)
	assert.InDelta(t, 103.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 25.0/103.0, trade.Qty, 1e-8)
	assert.NotEmpty(t, trade.ID)

	assert.Equal(t, 1, store.summary.OpenCount)
	require.NotNil(t, store.summary.LastTickTime)
}

func TestRunTick_SellClosesAndAppliesFeedback(t *testing.T) {
	t.Parallel()

	entry := time.Now().UTC().Add(-time.Hour)
	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 97.0),
	}}
	store := &memoryLedgerStore{
		open: []domain.OpenTrade{domain.NewOpenTrade("BTCUSDC", 1.0, 100.0, 100.0, entry)},
	}
	ts := newService(md, store, paperSettings("BTCUSDC"))

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Closed)
	assert.Equal(t, 0, result.Opened)
	assert.Equal(t, 0, result.OpenNow)

	require.Len(t, store.closed, 1)
	closed := store.closed[0]
	assert.InDelta(t, -3.0, closed.PnLUSDC, 1e-9)
	assert.InDelta(t, -3.0, closed.PnLPct, 1e-9)

	// Loss deducted in full from the adjustment.
	assert.InDelta(t, -3.0, store.exposure.AdjustmentUSDC, 1e-9)
	assert.InDelta(t, 97.0, result.EffectiveLimit, 1e-9)
	assert.InDelta(t, -3.0, store.summary.RealizedPnLUSDCTotal, 1e-9)
}

func TestRunTick_ProfitReinvestsPartially(t *testing.T) {
	t.Parallel()

	entry := time.Now().UTC().Add(-time.Hour)
	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 97.0),
	}}
	// Entry below exit: the downward cross still realizes a profit.
	store := &memoryLedgerStore{
		open: []domain.OpenTrade{domain.NewOpenTrade("BTCUSDC", 1.0, 90.0, 90.0, entry)},
	}
	ts := newService(md, store, paperSettings("BTCUSDC"))

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)

	require.Len(t, store.closed, 1)
	assert.InDelta(t, 7.0, store.closed[0].PnLUSDC, 1e-9)
	// Half of the profit reinvested at reinvest_profit_pct 50.
	assert.InDelta(t, 3.5, store.exposure.AdjustmentUSDC, 1e-9)
	assert.InDelta(t, 103.5, result.EffectiveLimit, 1e-9)
}

func TestRunTick_FetchErrorDoesNotBlockOtherSymbols(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{
		prices: map[string][]float64{"ETHUSDC": crossSeries(100.0, 103.0)},
		errs:   map[string]error{"BTCUSDC": errors.New("connection refused")},
	}
	store := &memoryLedgerStore{}
	settings := paperSettings("BTCUSDC", "ETHUSDC")
	settings.MaxOpenPositions = 5
	ts := newService(md, store, settings)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Opened)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "BTCUSDC")

	require.Len(t, store.open, 1)
	assert.Equal(t, "ETHUSDC", store.open[0].Symbol)
}

func TestRunTick_SequentialOpensRespectEffectiveLimit(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 103.0),
		"ETHUSDC": crossSeries(50.0, 53.0),
	}}
	store := &memoryLedgerStore{}
	settings := paperSettings("BTCUSDC", "ETHUSDC")
	settings.MaxOpenPositions = 10
	settings.MaxPositionSizeUSDC = 60.0
	settings.MaxUSDCExposure = 100.0
	ts := newService(md, store, settings)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)

	// First open takes the full position cap, the second only the
	// remaining headroom: together they never exceed the limit.
	assert.Equal(t, 2, result.Opened)
	require.Len(t, store.open, 2)
	assert.InDelta(t, 60.0, store.open[0].NotionalUSDC, 1e-9)
	assert.InDelta(t, 40.0, store.open[1].NotionalUSDC, 1e-9)

	total := store.open[0].NotionalUSDC + store.open[1].NotionalUSDC
	assert.LessOrEqual(t, total, result.EffectiveLimit+exposureEpsilon)
}

func TestRunTick_MaxOpenPositionsGate(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 103.0),
		"ETHUSDC": crossSeries(50.0, 53.0),
	}}
	store := &memoryLedgerStore{}
	settings := paperSettings("BTCUSDC", "ETHUSDC")
	settings.MaxOpenPositions = 1
	ts := newService(md, store, settings)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Opened)
	assert.Len(t, store.open, 1)
}

func TestRunTick_FlatMarketIsIdempotent(t *testing.T) {
	t.Parallel()

	entry := time.Now().UTC().Add(-time.Hour)
	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": flat(80, 100.0),
	}}
	store := &memoryLedgerStore{
		open:     []domain.OpenTrade{domain.NewOpenTrade("BTCUSDC", 1.0, 100.0, 100.0, entry)},
		exposure: domain.ExposureState{AdjustmentUSDC: 2.5},
	}
	ts := newService(md, store, paperSettings("BTCUSDC"))

	for i := 0; i < 2; i++ {
		result, err := ts.RunTick(context.Background())
		require.NoError(t, err)
		assert.Zero(t, result.Opened)
		assert.Zero(t, result.Closed)
		assert.Equal(t, 1, result.OpenNow)
	}

	assert.Len(t, store.open, 1)
	assert.Empty(t, store.closed)
	assert.InDelta(t, 2.5, store.exposure.AdjustmentUSDC, 1e-9)
}

func TestRunTick_PersistenceFailureSurfaced(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{prices: map[string][]float64{
		"BTCUSDC": crossSeries(100.0, 103.0),
	}}
	store := &memoryLedgerStore{saveErr: errors.New("disk full")}
	ts := newService(md, store, paperSettings("BTCUSDC"))

	_, err := ts.RunTick(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunTick_ExhaustedLimitBlocksOpens(t *testing.T) {
	t.Parallel()

	md := &fakeMarketData{prices: map[string][]float64{
		"ETHUSDC": crossSeries(50.0, 53.0),
	}}
	// The accumulated drawdown has pushed the effective limit to zero.
	store := &memoryLedgerStore{
		exposure: domain.ExposureState{AdjustmentUSDC: -150.0},
	}
	settings := paperSettings("ETHUSDC")
	ts := newService(md, store, settings)

	result, err := ts.RunTick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Opened)
	assert.Equal(t, 0.0, result.EffectiveLimit)
	assert.Empty(t, store.open)
}

func TestManualOpen_DuplicateSymbolRejected(t *testing.T) {
	t.Parallel()

	entry := time.Now().UTC()
	store := &memoryLedgerStore{
		open: []domain.OpenTrade{domain.NewOpenTrade("BTCUSDC", 1.0, 100.0, 100.0, entry)},
	}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	_, err := ts.ManualOpen(context.Background(), domain.NewOpenTrade("BTCUSDC", 2.0, 100.0, 200.0, entry))
	assert.ErrorIs(t, err, domain.ErrDuplicateSymbol)
}

func TestManualOpen_RejectsNonBuySide(t *testing.T) {
	t.Parallel()

	store := &memoryLedgerStore{}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	// A SELL entry at 100 closed at 110 would settle as +10 under the
	// long-only PnL math; the ledger refuses the side outright instead.
	trade := domain.NewOpenTrade("BTCUSDC", 1.0, 100.0, 100.0, time.Now().UTC())
	trade.Side = "SELL"

	_, err := ts.ManualOpen(context.Background(), trade)
	assert.ErrorIs(t, err, domain.ErrInvalidSide)
	assert.Zero(t, store.saves)
	assert.Empty(t, store.open)
}

func TestManualClose_ByID(t *testing.T) {
	t.Parallel()

	entry := time.Now().UTC().Add(-30 * time.Minute)
	trade := domain.NewOpenTrade("BTCUSDC", 0.5, 100.0, 50.0, entry)
	store := &memoryLedgerStore{open: []domain.OpenTrade{trade}}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	closed, err := ts.ManualClose(context.Background(), trade.ID, 120.0, time.Time{})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, closed.PnLUSDC, 1e-9)
	assert.Empty(t, store.open)
	require.Len(t, store.closed, 1)
	// Half the profit reinvested.
	assert.InDelta(t, 5.0, store.exposure.AdjustmentUSDC, 1e-9)
}

func TestManualClose_UnknownID(t *testing.T) {
	t.Parallel()

	store := &memoryLedgerStore{}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	_, err := ts.ManualClose(context.Background(), "missing", 100.0, time.Time{})
	assert.ErrorIs(t, err, domain.ErrNoOpenTrade)
}

func TestResetExposureAdjustment(t *testing.T) {
	t.Parallel()

	store := &memoryLedgerStore{
		exposure: domain.ExposureState{AdjustmentUSDC: -42.0, RealizedPnLUSDC: -42.0},
	}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	state, err := ts.ResetExposureAdjustment(context.Background())
	require.NoError(t, err)
	assert.Zero(t, state.AdjustmentUSDC)
	assert.Zero(t, store.exposure.AdjustmentUSDC)
	// Realized totals are history, not feedback; they survive a reset.
	assert.InDelta(t, -42.0, store.exposure.RealizedPnLUSDC, 1e-9)
}

func TestSummary_RecomputesFromLedger(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	store := &memoryLedgerStore{
		closed: []domain.ClosedTrade{
			{ID: "a", Symbol: "BTCUSDC", Side: domain.SideBuy, PnLUSDC: 10.0, ExitTime: now},
			{ID: "b", Symbol: "ETHUSDC", Side: domain.SideBuy, PnLUSDC: -4.0, ExitTime: now.Add(-time.Hour)},
		},
		// A stale persisted summary must be ignored.
		summary: domain.Summary{RealizedPnLUSDCTotal: 999.0},
	}
	ts := newService(&fakeMarketData{}, store, paperSettings("BTCUSDC"))

	sum, err := ts.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sum.ClosedCount)
	assert.InDelta(t, 6.0, sum.RealizedPnLUSDCTotal, 1e-9)
	assert.InDelta(t, 50.0, sum.WinRate, 1e-9)
}

func TestClosedTrades_LimitClamped(t *testing.T) {
	t.Parallel()

	closed := make([]domain.ClosedTrade, 5)
	for i := range closed {
		closed[i] = domain.ClosedTrade{ID: fmt.Sprintf("t%d", i)}
	}
	store := &memoryLedgerStore{closed: closed}
	ts := newService(&fakeMarketData{}, store, paperSettings())

	got, err := ts.ClosedTrades(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = ts.ClosedTrades(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "t0", got[0].ID)

	got, err = ts.ClosedTrades(context.Background(), 5000)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}
