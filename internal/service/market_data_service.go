package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Public Binance endpoints tried in order. The data mirror keeps the
// market endpoints usable when the primary rejects the region.
var defaultEndpoints = []string{
	"https://api.binance.com",
	"https://data-api.binance.vision",
}

// Timeframes forwarded to Binance as-is; anything else degrades to 1m.
var supportedTimeframes = map[string]bool{
	"1m":  true,
	"5m":  true,
	"15m": true,
}

// MarketDataService fetches klines, tickers and exchange metadata from
// Binance. It implements domain.MarketDataProvider.
type MarketDataService struct {
	httpClient *http.Client
	endpoints  []string
}

// NewMarketDataService creates a MarketDataService against the public
// Binance endpoints. Extra endpoints override the defaults (used in
// tests).
func NewMarketDataService(endpoints ...string) *MarketDataService {
	if len(endpoints) == 0 {
		endpoints = defaultEndpoints
	}
	return &MarketDataService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		endpoints: endpoints,
	}
}

// ClosingPrices returns up to limit closing prices for the symbol,
// oldest to newest. Unsupported timeframes fall back to 1m.
func (s *MarketDataService) ClosingPrices(ctx context.Context, symbol, timeframe string, limit int) ([]float64, error) {
	interval := timeframe
	if !supportedTimeframes[interval] {
		interval = "1m"
	}

	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := s.getJSON(ctx, "/api/v3/klines?"+params.Encode())
	if err != nil {
		return nil, err
	}

	// Each kline is a mixed-type array; the closing price is the
	// string at index 4.
	var klines [][]json.RawMessage
	if err := json.Unmarshal(body, &klines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal klines for %s: %w", symbol, err)
	}

	prices := make([]float64, 0, len(klines))
	for _, k := range klines {
		if len(k) < 5 {
			return nil, fmt.Errorf("malformed kline for %s", symbol)
		}
		var raw string
		if err := json.Unmarshal(k[4], &raw); err != nil {
			return nil, fmt.Errorf("failed to parse close price for %s: %w", symbol, err)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse close price for %s: %w", symbol, err)
		}
		prices = append(prices, price)
	}

	return prices, nil
}

// TickerPrice returns the last trade price for one symbol.
func (s *MarketDataService) TickerPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", strings.ToUpper(symbol))

	body, err := s.getJSON(ctx, "/api/v3/ticker/price?"+params.Encode())
	if err != nil {
		return 0, err
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker for %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ticker price for %s: %w", symbol, err)
	}
	return price, nil
}

// exchangeSymbol is the slice of exchangeInfo the symbol filters need.
type exchangeSymbol struct {
	Symbol               string   `json:"symbol"`
	Status               string   `json:"status"`
	IsSpotTradingAllowed bool     `json:"isSpotTradingAllowed"`
	Permissions          []string `json:"permissions"`
}

// ticker24h is one row of the 24hr ticker statistics.
type ticker24h struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
	Count       int64  `json:"count"`
}

// SpotSymbols lists all TRADING spot symbols quoted in the given asset,
// with leveraged tokens and digit-prefixed bases filtered out.
func (s *MarketDataService) SpotSymbols(ctx context.Context, quote string) ([]string, error) {
	quote = strings.ToUpper(quote)

	symbols, err := s.fetchExchangeSymbols(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]string, 0, 64)
	for _, sym := range symbols {
		if !tradableSpot(sym) || !strings.HasSuffix(sym.Symbol, quote) {
			continue
		}
		base := strings.TrimSuffix(sym.Symbol, quote)
		if !goodBaseSymbol(base, true) || seen[sym.Symbol] {
			continue
		}
		seen[sym.Symbol] = true
		out = append(out, sym.Symbol)
	}
	return out, nil
}

// TopSymbols ranks TRADING spot symbols for a quote asset by 24h quote
// volume (trade count as tiebreaker) and returns the first n at or
// above minQuoteVolume.
func (s *MarketDataService) TopSymbols(ctx context.Context, quote string, n int, minQuoteVolume float64, excludeLeverage bool) ([]string, error) {
	quote = strings.ToUpper(quote)

	symbols, err := s.fetchExchangeSymbols(ctx)
	if err != nil {
		return nil, err
	}
	validSpot := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		if tradableSpot(sym) {
			validSpot[sym.Symbol] = true
		}
	}

	tickers, err := s.fetch24hTickers(ctx)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		symbol string
		volume float64
		count  int64
	}
	filtered := make([]ranked, 0, 64)
	for _, t := range tickers {
		if !validSpot[t.Symbol] || !strings.HasSuffix(t.Symbol, quote) {
			continue
		}
		if !goodBaseSymbol(strings.TrimSuffix(t.Symbol, quote), excludeLeverage) {
			continue
		}
		volume, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || volume < minQuoteVolume {
			continue
		}
		filtered = append(filtered, ranked{symbol: t.Symbol, volume: volume, count: t.Count})
	}

	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].volume != filtered[j].volume {
			return filtered[i].volume > filtered[j].volume
		}
		return filtered[i].count > filtered[j].count
	})

	if n < 1 {
		n = 1
	}
	if n > 200 {
		n = 200
	}
	if n > len(filtered) {
		n = len(filtered)
	}

	out := make([]string, 0, n)
	for _, r := range filtered[:n] {
		out = append(out, r.symbol)
	}
	return out, nil
}

func (s *MarketDataService) fetchExchangeSymbols(ctx context.Context) ([]exchangeSymbol, error) {
	body, err := s.getJSON(ctx, "/api/v3/exchangeInfo")
	if err != nil {
		return nil, err
	}

	var info struct {
		Symbols []exchangeSymbol `json:"symbols"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exchangeInfo: %w", err)
	}
	return info.Symbols, nil
}

func (s *MarketDataService) fetch24hTickers(ctx context.Context) ([]ticker24h, error) {
	body, err := s.getJSON(ctx, "/api/v3/ticker/24hr")
	if err != nil {
		return nil, err
	}

	var tickers []ticker24h
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal 24h tickers: %w", err)
	}
	return tickers, nil
}

// getJSON tries each endpoint in order and returns the first successful
// body.
func (s *MarketDataService) getJSON(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for _, base := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("binance API error: status=%d, body=%s", resp.StatusCode, string(body))
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("all binance endpoints failed: %w", lastErr)
}

// tradableSpot reports whether exchangeInfo marks the symbol as a
// TRADING spot market. Binance exposes either the boolean flag or a
// permissions list depending on API version.
func tradableSpot(sym exchangeSymbol) bool {
	if sym.Status != "TRADING" {
		return false
	}
	if sym.IsSpotTradingAllowed {
		return true
	}
	for _, p := range sym.Permissions {
		if p == "SPOT" {
			return true
		}
	}
	return false
}

// goodBaseSymbol filters digit-prefixed bases (1000XYZ) and, when
// requested, leveraged tokens (UP/DOWN/BULL/BEAR).
func goodBaseSymbol(base string, excludeLeverage bool) bool {
	if base == "" || (base[0] >= '0' && base[0] <= '9') {
		return false
	}
	if excludeLeverage {
		for _, suffix := range []string{"UP", "DOWN", "BULL", "BEAR"} {
			if strings.HasSuffix(base, suffix) {
				return false
			}
		}
	}
	return true
}
