package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"papertrade/internal/service"
)

// MarketHandler handles market discovery requests
type MarketHandler struct {
	marketData *service.MarketDataService
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(marketData *service.MarketDataService) *MarketHandler {
	return &MarketHandler{marketData: marketData}
}

// GetSymbols lists all TRADING spot symbols for a quote asset
// GET /symbols/:quote
func (h *MarketHandler) GetSymbols(c echo.Context) error {
	quote := strings.ToUpper(c.Param("quote"))
	if quote == "" {
		return BadRequestResponse(c, "quote asset is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	symbols, err := h.marketData.SpotSymbols(ctx, quote)
	if err != nil {
		return ErrorResponse(c, http.StatusBadGateway, "Failed to fetch exchange info", err.Error())
	}

	return SuccessResponse(c, map[string]interface{}{
		"quote":   quote,
		"count":   len(symbols),
		"symbols": symbols,
	})
}

// GetTopSymbols lists the most liquid spot symbols for a quote asset,
// ranked by 24h quote volume
// GET /symbols/:quote/top?n=20&min_qvol=500000&exclude_leverage=true
func (h *MarketHandler) GetTopSymbols(c echo.Context) error {
	quote := strings.ToUpper(c.Param("quote"))
	if quote == "" {
		return BadRequestResponse(c, "quote asset is required")
	}

	n := 20
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return BadRequestResponse(c, "n must be an integer")
		}
		n = v
	}

	minQvol := 500_000.0
	if raw := c.QueryParam("min_qvol"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return BadRequestResponse(c, "min_qvol must be a number")
		}
		minQvol = v
	}

	excludeLeverage := true
	if raw := c.QueryParam("exclude_leverage"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return BadRequestResponse(c, "exclude_leverage must be a boolean")
		}
		excludeLeverage = v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	symbols, err := h.marketData.TopSymbols(ctx, quote, n, minQvol, excludeLeverage)
	if err != nil {
		return ErrorResponse(c, http.StatusBadGateway, "Failed to fetch market data", err.Error())
	}

	return SuccessResponse(c, map[string]interface{}{
		"quote":   quote,
		"n":       len(symbols),
		"symbols": symbols,
	})
}
