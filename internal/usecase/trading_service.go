package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"papertrade/internal/domain"
	"papertrade/internal/ledger"
	"papertrade/internal/strategy"
	"papertrade/internal/summary"
)

const (
	// Closing prices requested per symbol. Comfortably above the 61
	// bars the crossover needs.
	historyBars = 80

	// Minimum exposure headroom for admitting a new position. Below
	// this the position would be dust.
	exposureEpsilon = 1e-6

	// Per-symbol fetch timeout. One slow symbol must not hold the
	// whole tick hostage.
	fetchTimeout = 10 * time.Second
)

// TradingService runs the tick lifecycle and every other ledger
// mutation. A single mutex serializes ticks and manual trades, so the
// ledger and exposure state are owned exclusively while they change.
type TradingService struct {
	marketData    domain.MarketDataProvider
	ledgerStore   domain.LedgerStore
	settingsStore domain.SettingsStore

	mu sync.Mutex
}

// NewTradingService creates a new TradingService.
func NewTradingService(
	marketData domain.MarketDataProvider,
	ledgerStore domain.LedgerStore,
	settingsStore domain.SettingsStore,
) *TradingService {
	return &TradingService{
		marketData:    marketData,
		ledgerStore:   ledgerStore,
		settingsStore: settingsStore,
	}
}

// fetchResult carries one symbol's price history (or its failure) from
// the concurrent fetch phase into the sequential decision phase.
type fetchResult struct {
	symbol string
	prices []float64
	err    error
}

// RunTick performs one full tick: concurrent price fetch for every
// allowed symbol, sequential signal evaluation and ledger mutation,
// then an atomic persist of ledger, exposure and summary.
//
// Missing settings, a non-paper trade mode or an empty symbol list make
// the tick a reported no-op. Per-symbol fetch failures are accumulated
// in the result and never abort the tick. A persistence failure is
// returned as an error: the tick must not report success without
// durable state.
func (ts *TradingService) RunTick(ctx context.Context) (domain.TickResult, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now().UTC()
	result := domain.TickResult{Errors: []string{}}

	settings, err := ts.settingsStore.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSettings) {
			result.Errors = append(result.Errors, "no settings")
			return result, nil
		}
		return result, fmt.Errorf("failed to load settings: %w", err)
	}
	settings.Normalize()

	if settings.TradeMode != domain.ModePaper {
		result.Errors = append(result.Errors, "trade mode is not paper")
		return result, nil
	}
	if len(settings.AllowedSymbols) == 0 {
		result.Errors = append(result.Errors, "no symbols configured")
		return result, nil
	}

	open, closed, exposure, err := ts.loadLedgerState(ctx)
	if err != nil {
		return result, err
	}
	// The settings value is the base limit; the store only owns the
	// accumulated adjustment.
	exposure.BaseLimitUSDC = settings.MaxUSDCExposure

	log.Printf("[Tick] Evaluating %d symbol(s), timeframe %s", len(settings.AllowedSymbols), settings.Timeframe)

	// FETCHING: all symbols in parallel, each with its own timeout.
	// Results are joined before any ledger mutation happens.
	results := make([]fetchResult, len(settings.AllowedSymbols))
	var wg sync.WaitGroup
	for i, sym := range settings.AllowedSymbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			prices, err := ts.marketData.ClosingPrices(fetchCtx, sym, settings.Timeframe, historyBars)
			results[i] = fetchResult{symbol: sym, prices: prices, err: err}
		}(i, sym)
	}
	wg.Wait()

	result.Processed = len(settings.AllowedSymbols)

	// DECIDING: strictly sequential so headroom can be recomputed after
	// every admitted position.
	led := ledger.New(open, closed)
	effectiveLimit := exposure.EffectiveLimit(settings.AutoAdjustExposure)

	for _, res := range results {
		if res.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", res.symbol, res.err))
			continue
		}
		if len(res.prices) == 0 {
			continue
		}

		sig := strategy.Crossover(res.prices)
		if sig == domain.SignalNone {
			continue
		}
		price := res.prices[len(res.prices)-1]

		switch sig {
		case domain.SignalSell:
			openTrade, ok := led.OpenTrade(res.symbol)
			if !ok || openTrade.Side != domain.SideBuy {
				// Long-only: a SELL with no open position does nothing.
				continue
			}
			closedTrade, err := led.Close(res.symbol, price, now)
			if err != nil {
				return result, fmt.Errorf("ledger close for %s: %w", res.symbol, err)
			}
			exposure.ApplyClose(closedTrade.PnLUSDC, settings.ReinvestProfitPct, settings.AutoAdjustExposure)
			effectiveLimit = exposure.EffectiveLimit(settings.AutoAdjustExposure)
			result.Closed++
			log.Printf("[Tick] Closed %s @ %.8f | PnL %.6f USDC", res.symbol, price, closedTrade.PnLUSDC)

		case domain.SignalBuy:
			if led.HasOpen(res.symbol) {
				continue
			}
			if led.OpenCount() >= settings.MaxOpenPositions {
				continue
			}
			remaining := effectiveLimit - led.CurrentExposure()
			if remaining <= exposureEpsilon || price <= 0 {
				continue
			}
			notional := math.Min(settings.MaxPositionSizeUSDC, remaining)
			if notional <= exposureEpsilon {
				continue
			}
			qty := roundQty(notional / price)
			if _, err := led.Open(res.symbol, qty, price, notional, now); err != nil {
				return result, fmt.Errorf("ledger open for %s: %w", res.symbol, err)
			}
			result.Opened++
			log.Printf("[Tick] Opened %s @ %.8f | notional %.2f USDC", res.symbol, price, notional)
		}
	}

	// SETTLED: rebuild the summary and persist everything as one unit.
	sum := summary.Compute(led.OpenCount(), led.ClosedTrades(), settings, exposure, now)
	sum.LastTickTime = &now

	if err := ts.ledgerStore.Save(ctx, led.OpenTrades(), led.ClosedTrades(), exposure, sum); err != nil {
		return result, fmt.Errorf("failed to persist tick: %w", err)
	}

	result.EffectiveLimit = exposure.EffectiveLimit(settings.AutoAdjustExposure)
	result.OpenNow = led.OpenCount()
	result.LastTickTime = now

	log.Printf("[Tick] Done: processed=%d opened=%d closed=%d errors=%d open_now=%d",
		result.Processed, result.Opened, result.Closed, len(result.Errors), result.OpenNow)
	return result, nil
}

// ManualOpen admits an externally supplied open trade, used by the
// trades API for exercising the ledger. It runs under the same lock as
// the tick, so it can never interleave with a tick's DECIDING phase.
func (ts *TradingService) ManualOpen(ctx context.Context, trade domain.OpenTrade) (domain.OpenTrade, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if trade.EntryTime.IsZero() {
		trade.EntryTime = time.Now().UTC()
	}
	if trade.Side == "" {
		trade.Side = domain.SideBuy
	}
	// Long-only: Settle computes BUY-side PnL, so admitting any other
	// side would invert the sign on close.
	if trade.Side != domain.SideBuy {
		return domain.OpenTrade{}, fmt.Errorf("%w: %s", domain.ErrInvalidSide, trade.Side)
	}

	open, closed, exposure, err := ts.loadLedgerState(ctx)
	if err != nil {
		return domain.OpenTrade{}, err
	}

	led := ledger.New(open, closed)
	if err := led.Admit(trade); err != nil {
		return domain.OpenTrade{}, err
	}

	if err := ts.settle(ctx, led, exposure); err != nil {
		return domain.OpenTrade{}, err
	}
	return trade, nil
}

// ManualClose closes the open trade with the given ID at exitPrice and
// feeds the realized PnL through the exposure feedback loop.
func (ts *TradingService) ManualClose(ctx context.Context, id string, exitPrice float64, exitTime time.Time) (domain.ClosedTrade, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if exitTime.IsZero() {
		exitTime = time.Now().UTC()
	}

	settings, err := ts.currentSettings(ctx)
	if err != nil {
		return domain.ClosedTrade{}, err
	}

	open, closed, exposure, err := ts.loadLedgerState(ctx)
	if err != nil {
		return domain.ClosedTrade{}, err
	}
	exposure.BaseLimitUSDC = settings.MaxUSDCExposure

	symbol := ""
	for _, t := range open {
		if t.ID == id {
			symbol = t.Symbol
			break
		}
	}
	if symbol == "" {
		return domain.ClosedTrade{}, fmt.Errorf("%w: id %s", domain.ErrNoOpenTrade, id)
	}

	led := ledger.New(open, closed)
	closedTrade, err := led.Close(symbol, exitPrice, exitTime)
	if err != nil {
		return domain.ClosedTrade{}, err
	}
	exposure.ApplyClose(closedTrade.PnLUSDC, settings.ReinvestProfitPct, settings.AutoAdjustExposure)

	sum := summary.Compute(led.OpenCount(), led.ClosedTrades(), settings, exposure, time.Now().UTC())
	if prev, err := ts.ledgerStore.LoadSummary(ctx); err == nil {
		sum.LastTickTime = prev.LastTickTime
	}

	if err := ts.ledgerStore.Save(ctx, led.OpenTrades(), led.ClosedTrades(), exposure, sum); err != nil {
		return domain.ClosedTrade{}, fmt.Errorf("failed to persist close: %w", err)
	}
	return closedTrade, nil
}

// ResetExposureAdjustment zeroes the accumulated adjustment. This is
// the only way the adjustment ever resets.
func (ts *TradingService) ResetExposureAdjustment(ctx context.Context) (domain.ExposureState, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	open, closed, exposure, err := ts.loadLedgerState(ctx)
	if err != nil {
		return domain.ExposureState{}, err
	}
	exposure.AdjustmentUSDC = 0

	led := ledger.New(open, closed)
	if err := ts.settle(ctx, led, exposure); err != nil {
		return domain.ExposureState{}, err
	}
	return exposure, nil
}

// OpenTrades returns the currently open positions.
func (ts *TradingService) OpenTrades(ctx context.Context) ([]domain.OpenTrade, error) {
	return ts.ledgerStore.LoadOpen(ctx)
}

// ClosedTrades returns up to limit closed trades, newest first. The
// limit is clamped to [1, 1000].
func (ts *TradingService) ClosedTrades(ctx context.Context, limit int) ([]domain.ClosedTrade, error) {
	closed, err := ts.ledgerStore.LoadClosed(ctx)
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}
	if limit > len(closed) {
		limit = len(closed)
	}
	return closed[:limit], nil
}

// Summary recomputes the trading summary from the stored ledger. The
// projection is always rebuilt from the closed-trade history, so a
// stale or torn persisted summary can never be served.
func (ts *TradingService) Summary(ctx context.Context) (domain.Summary, error) {
	settings, err := ts.currentSettings(ctx)
	if err != nil {
		return domain.Summary{}, err
	}

	open, closed, exposure, err := ts.loadLedgerState(ctx)
	if err != nil {
		return domain.Summary{}, err
	}
	exposure.BaseLimitUSDC = settings.MaxUSDCExposure

	sum := summary.Compute(len(open), closed, settings, exposure, time.Now().UTC())
	if prev, err := ts.ledgerStore.LoadSummary(ctx); err == nil {
		sum.LastTickTime = prev.LastTickTime
	}
	return sum, nil
}

// Exposure returns the current exposure state with the base limit
// synced from settings, plus the settings snapshot it was computed
// against.
func (ts *TradingService) Exposure(ctx context.Context) (domain.ExposureState, domain.Settings, error) {
	settings, err := ts.currentSettings(ctx)
	if err != nil {
		return domain.ExposureState{}, domain.Settings{}, err
	}
	exposure, err := ts.ledgerStore.LoadExposure(ctx)
	if err != nil {
		return domain.ExposureState{}, domain.Settings{}, fmt.Errorf("failed to load exposure state: %w", err)
	}
	exposure.BaseLimitUSDC = settings.MaxUSDCExposure
	return exposure, settings, nil
}

// loadLedgerState loads the full persisted snapshot a mutation starts
// from.
func (ts *TradingService) loadLedgerState(ctx context.Context) ([]domain.OpenTrade, []domain.ClosedTrade, domain.ExposureState, error) {
	open, err := ts.ledgerStore.LoadOpen(ctx)
	if err != nil {
		return nil, nil, domain.ExposureState{}, fmt.Errorf("failed to load open trades: %w", err)
	}
	closed, err := ts.ledgerStore.LoadClosed(ctx)
	if err != nil {
		return nil, nil, domain.ExposureState{}, fmt.Errorf("failed to load closed trades: %w", err)
	}
	exposure, err := ts.ledgerStore.LoadExposure(ctx)
	if err != nil {
		return nil, nil, domain.ExposureState{}, fmt.Errorf("failed to load exposure state: %w", err)
	}
	return open, closed, exposure, nil
}

// currentSettings returns the stored settings or the defaults when none
// were ever saved.
func (ts *TradingService) currentSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := ts.settingsStore.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoSettings) {
			return domain.DefaultSettings(), nil
		}
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	settings.Normalize()
	return settings, nil
}

// settle rebuilds the summary and persists the ledger snapshot,
// preserving the last tick timestamp.
func (ts *TradingService) settle(ctx context.Context, led *ledger.Ledger, exposure domain.ExposureState) error {
	settings, err := ts.currentSettings(ctx)
	if err != nil {
		return err
	}
	exposure.BaseLimitUSDC = settings.MaxUSDCExposure

	sum := summary.Compute(led.OpenCount(), led.ClosedTrades(), settings, exposure, time.Now().UTC())
	if prev, err := ts.ledgerStore.LoadSummary(ctx); err == nil {
		sum.LastTickTime = prev.LastTickTime
	}

	if err := ts.ledgerStore.Save(ctx, led.OpenTrades(), led.ClosedTrades(), exposure, sum); err != nil {
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}

// roundQty rounds a base-asset quantity to 8 decimals, the common
// exchange step size.
func roundQty(qty float64) float64 {
	return math.Round(qty*1e8) / 1e8
}
