package http

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"papertrade/internal/delivery/http/dto"
	"papertrade/internal/domain"
	"papertrade/internal/usecase"
)

// SettingsHandler handles risk/exposure configuration requests
type SettingsHandler struct {
	settingsStore  domain.SettingsStore
	tradingService *usecase.TradingService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsStore domain.SettingsStore, tradingService *usecase.TradingService) *SettingsHandler {
	return &SettingsHandler{
		settingsStore:  settingsStore,
		tradingService: tradingService,
	}
}

// GetSettings returns the current settings with the computed effective limit
// GET /settings
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exposure, settings, err := h.tradingService.Exposure(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load settings", err)
	}

	return SuccessResponse(c, dto.SettingsResponse{
		Settings:                 settings,
		EffectiveMaxUSDCExposure: exposure.EffectiveLimit(settings.AutoAdjustExposure),
	})
}

// UpdateSettings replaces the stored settings
// PUT /settings
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var req dto.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "Invalid request body")
	}

	settings := req.ToDomain()
	settings.Normalize()
	if err := settings.Validate(); err != nil {
		return BadRequestResponse(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.settingsStore.Put(ctx, settings); err != nil {
		return InternalServerErrorResponse(c, "Failed to save settings", err)
	}

	exposure, _, err := h.tradingService.Exposure(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to load exposure state", err)
	}

	return SuccessResponse(c, dto.SettingsResponse{
		Settings:                 settings,
		EffectiveMaxUSDCExposure: exposure.EffectiveLimit(settings.AutoAdjustExposure),
	})
}

// ResetExposure zeroes the accumulated exposure adjustment
// POST /settings/exposure/reset
func (h *SettingsHandler) ResetExposure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	exposure, err := h.tradingService.ResetExposureAdjustment(ctx)
	if err != nil {
		return InternalServerErrorResponse(c, "Failed to reset exposure adjustment", err)
	}

	return SuccessMessageResponse(c, "Exposure adjustment reset", exposure)
}
