package http

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"papertrade/internal/delivery/http/dto"
	"papertrade/internal/domain"
	"papertrade/internal/service"
	"papertrade/internal/usecase"
)

// TradeHandler handles order previews and simulated market orders
type TradeHandler struct {
	marketData     *service.MarketDataService
	tradingService *usecase.TradingService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(marketData *service.MarketDataService, tradingService *usecase.TradingService) *TradeHandler {
	return &TradeHandler{
		marketData:     marketData,
		tradingService: tradingService,
	}
}

// Preview sizes a position from the current settings without touching
// the ledger
// POST /trade/preview
func (h *TradeHandler) Preview(c echo.Context) error {
	var req dto.PreviewRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	symbol := strings.ToUpper(req.Symbol)
	side := strings.ToUpper(req.Side)
	if symbol == "" {
		return BadRequestResponse(c, "symbol is required")
	}
	if side != "BUY" && side != "SELL" {
		return BadRequestResponse(c, "side must be BUY or SELL")
	}
	if req.StopDistancePct <= 0 || req.TakeProfitPct <= 0 {
		return BadRequestResponse(c, "stop_distance_pct and take_profit_pct must be > 0")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	_, settings, err := h.tradingService.Exposure(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load settings", err)
	}

	price, notes, err := h.resolvePrice(ctx, symbol, req.Price)
	if err != nil {
		return ErrorResponse(c, http.StatusBadGateway, "Failed to fetch ticker price", err.Error())
	}

	qty := settings.MaxPositionSizeUSDC / math.Max(price, 1e-8)
	estCost := qty * price

	var stopPrice, takePrice float64
	if side == "BUY" {
		stopPrice = price * (1 - req.StopDistancePct/100)
		takePrice = price * (1 + req.TakeProfitPct/100)
	} else {
		stopPrice = price * (1 + req.StopDistancePct/100)
		takePrice = price * (1 - req.TakeProfitPct/100)
	}

	return SuccessResponse(c, dto.PreviewResponse{
		Symbol:          symbol,
		Side:            side,
		Qty:             round8(qty),
		EstCostUSDC:     math.Round(estCost*100) / 100,
		StopPrice:       round8(stopPrice),
		TakeProfitPrice: round8(takePrice),
		Notes:           notes,
	})
}

// MarketOrder simulates a market order fill in paper mode
// POST /trade/market
func (h *TradeHandler) MarketOrder(c echo.Context) error {
	var req dto.MarketOrderRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	symbol := strings.ToUpper(req.Symbol)
	side := strings.ToUpper(req.Side)
	if symbol == "" {
		return BadRequestResponse(c, "symbol is required")
	}
	if side != "BUY" && side != "SELL" {
		return BadRequestResponse(c, "side must be BUY or SELL")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	_, settings, err := h.tradingService.Exposure(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load settings", err)
	}

	if settings.TradeMode != domain.ModePaper {
		return BadRequestResponse(c, "Live orders are not supported; set trade_mode to paper")
	}

	price, _, err := h.resolvePrice(ctx, symbol, nil)
	if err != nil {
		return ErrorResponse(c, http.StatusBadGateway, "Failed to fetch ticker price", err.Error())
	}

	qty := 0.0
	if req.Qty != nil {
		qty = *req.Qty
	} else {
		qty = settings.MaxPositionSizeUSDC / math.Max(price, 1e-8)
	}
	if qty <= 0 {
		return BadRequestResponse(c, "qty must be > 0")
	}

	returnToUSDC := settings.ReturnToUSDC
	if req.ReturnToUSDCOnClose != nil {
		returnToUSDC = *req.ReturnToUSDCOnClose
	}

	return SuccessResponse(c, dto.MarketOrderResponse{
		Paper:               true,
		Symbol:              symbol,
		Side:                side,
		Qty:                 round8(qty),
		Price:               price,
		ReturnToUSDCOnClose: returnToUSDC,
		Message:             "Order simulated (paper mode)",
	})
}

// resolvePrice uses the caller-supplied price when present, otherwise
// the live ticker.
func (h *TradeHandler) resolvePrice(ctx context.Context, symbol string, supplied *float64) (float64, string, error) {
	if supplied != nil && *supplied > 0 {
		return *supplied, "preview at caller-supplied price", nil
	}
	price, err := h.marketData.TickerPrice(ctx, symbol)
	if err != nil {
		return 0, "", err
	}
	return price, "preview at live ticker price", nil
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}
