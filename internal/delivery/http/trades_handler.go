package http

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"papertrade/internal/delivery/http/dto"
	"papertrade/internal/domain"
	"papertrade/internal/usecase"
)

// TradesHandler handles ledger queries, manual trade entries and the
// tick trigger
type TradesHandler struct {
	tradingService *usecase.TradingService
}

// NewTradesHandler creates a new TradesHandler
func NewTradesHandler(tradingService *usecase.TradingService) *TradesHandler {
	return &TradesHandler{tradingService: tradingService}
}

// GetOpen returns the currently open positions
// GET /trades/open
func (h *TradesHandler) GetOpen(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	open, err := h.tradingService.OpenTrades(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load open trades", err)
	}
	if open == nil {
		open = []domain.OpenTrade{}
	}
	return SuccessResponse(c, open)
}

// GetClosed returns closed trades, newest first
// GET /trades/closed?limit=N
func (h *TradesHandler) GetClosed(c echo.Context) error {
	limit := 200
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return BadRequestResponse(c, "limit must be an integer")
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	closed, err := h.tradingService.ClosedTrades(ctx, limit)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load closed trades", err)
	}
	if closed == nil {
		closed = []domain.ClosedTrade{}
	}
	return SuccessResponse(c, closed)
}

// GetSummary returns the trading summary, recomputed from the ledger
// GET /trades/summary
func (h *TradesHandler) GetSummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sum, err := h.tradingService.Summary(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to compute summary", err)
	}
	return SuccessResponse(c, sum)
}

// PostOpen records a manually supplied open trade
// POST /trades/open
func (h *TradesHandler) PostOpen(c echo.Context) error {
	var req dto.OpenTradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	if req.Symbol == "" || req.Qty <= 0 || req.EntryPrice <= 0 {
		return BadRequestResponse(c, "symbol, qty and entry_price are required")
	}

	side := strings.ToUpper(req.Side)
	if side == "" {
		side = domain.SideBuy
	}
	if side != domain.SideBuy {
		return BadRequestResponse(c, "side must be BUY; short positions are not supported")
	}

	// The notional drives exposure accounting, so a caller-supplied
	// value must agree with qty * entry_price.
	derived := req.Qty * req.EntryPrice
	if req.NotionalUSDC != 0 && math.Abs(req.NotionalUSDC-derived) > 1e-6*math.Max(1, derived) {
		return BadRequestResponse(c, "notional_usdc must equal qty * entry_price")
	}

	trade := domain.OpenTrade{
		ID:           req.ID,
		Symbol:       strings.ToUpper(req.Symbol),
		Side:         side,
		Qty:          req.Qty,
		EntryPrice:   req.EntryPrice,
		NotionalUSDC: derived,
	}
	if trade.ID == "" {
		trade.ID = uuid.New().String()
	}
	if req.EntryTime != "" {
		t, err := time.Parse(time.RFC3339, req.EntryTime)
		if err != nil {
			return BadRequestResponse(c, "entry_time must be RFC3339")
		}
		trade.EntryTime = t.UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	created, err := h.tradingService.ManualOpen(ctx, trade)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSymbol) || errors.Is(err, domain.ErrInvalidSide) {
			return BadRequestResponse(c, err.Error())
		}
		return InternalServerErrorResponse(c, "Failed to record open trade", err)
	}
	return CreatedResponse(c, created)
}

// PostClose closes an open trade by ID
// POST /trades/close
func (h *TradesHandler) PostClose(c echo.Context) error {
	var req dto.CloseTradeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}
	if req.ID == "" || req.ExitPrice <= 0 {
		return BadRequestResponse(c, "id and exit_price are required")
	}

	var exitTime time.Time
	if req.ExitTime != "" {
		t, err := time.Parse(time.RFC3339, req.ExitTime)
		if err != nil {
			return BadRequestResponse(c, "exit_time must be RFC3339")
		}
		exitTime = t.UTC()
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	closed, err := h.tradingService.ManualClose(ctx, req.ID, req.ExitPrice, exitTime)
	if err != nil {
		if errors.Is(err, domain.ErrNoOpenTrade) {
			return NotFoundResponse(c, "Open trade not found")
		}
		return InternalServerErrorResponse(c, "Failed to close trade", err)
	}
	return SuccessResponse(c, closed)
}

// TriggerTick runs a tick immediately
// POST /tick
func (h *TradesHandler) TriggerTick(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	result, err := h.tradingService.RunTick(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Tick failed", err)
	}
	return SuccessResponse(c, result)
}
