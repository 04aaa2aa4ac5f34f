package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "papertrade/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	HealthHandler   *HealthHandler
	SettingsHandler *SettingsHandler
	TradesHandler   *TradesHandler
	MarketHandler   *MarketHandler
	TradeHandler    *TradeHandler

	// AuthToken protects mutating endpoints. Empty disables the check.
	AuthToken string
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// The health endpoint gets polled; keep it out of the log.
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	auth := custommiddleware.BearerAuth(config.AuthToken)

	// Health check
	e.GET("/health", config.HealthHandler.Health)

	// Settings
	e.GET("/settings", config.SettingsHandler.GetSettings)
	e.PUT("/settings", config.SettingsHandler.UpdateSettings, auth)
	e.POST("/settings/exposure/reset", config.SettingsHandler.ResetExposure, auth)

	// Ledger
	e.GET("/trades/open", config.TradesHandler.GetOpen)
	e.GET("/trades/closed", config.TradesHandler.GetClosed)
	e.GET("/trades/summary", config.TradesHandler.GetSummary)
	e.POST("/trades/open", config.TradesHandler.PostOpen, auth)
	e.POST("/trades/close", config.TradesHandler.PostClose, auth)

	// Market discovery
	e.GET("/symbols/:quote", config.MarketHandler.GetSymbols)
	e.GET("/symbols/:quote/top", config.MarketHandler.GetTopSymbols)

	// Orders
	e.POST("/trade/preview", config.TradeHandler.Preview)
	e.POST("/trade/market", config.TradeHandler.MarketOrder, auth)

	// Engine
	e.POST("/tick", config.TradesHandler.TriggerTick, auth)
}
