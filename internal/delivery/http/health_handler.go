package http

import (
	"context"
	"math"
	"time"

	"github.com/labstack/echo/v4"

	"papertrade/internal/domain"
)

// HealthHandler reports service liveness and basic runtime facts
type HealthHandler struct {
	settingsStore domain.SettingsStore
	quoteAsset    string
	storeKind     string
	startedAt     time.Time
}

// NewHealthHandler creates a new HealthHandler. storeKind names the
// active persistence backend ("postgres" or "file").
func NewHealthHandler(settingsStore domain.SettingsStore, quoteAsset, storeKind string) *HealthHandler {
	return &HealthHandler{
		settingsStore: settingsStore,
		quoteAsset:    quoteAsset,
		storeKind:     storeKind,
		startedAt:     time.Now().UTC(),
	}
}

// Health returns uptime, trade mode, quote asset and store backend
// GET /health
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	mode := string(domain.ModePaper)
	if settings, err := h.settingsStore.Get(ctx); err == nil {
		mode = string(settings.TradeMode)
	}

	uptime := time.Since(h.startedAt).Seconds()
	return SuccessResponse(c, map[string]interface{}{
		"ok":         true,
		"uptime_sec": math.Round(uptime*100) / 100,
		"mode":       mode,
		"quote":      h.quoteAsset,
		"store":      h.storeKind,
	})
}
