package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"papertrade/configs"
	"papertrade/internal/database"
	delivery "papertrade/internal/delivery/http"
	"papertrade/internal/domain"
	"papertrade/internal/infra"
	"papertrade/internal/repository"
	"papertrade/internal/service"
	"papertrade/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()

	ctx := context.Background()

	// Initialize stores. DATABASE_URL selects PostgreSQL; otherwise the
	// engine runs on the JSON file store under DATA_DIR.
	var (
		ledgerStore   domain.LedgerStore
		settingsStore domain.SettingsStore
		storeKind     string
	)
	if cfg.Database.URL != "" {
		db, err := infra.NewDatabase(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		ledgerStore = repository.NewPgLedgerStore(db)
		settingsStore = repository.NewPgSettingsStore(db)
		storeKind = "postgres"
	} else {
		var err error
		ledgerStore, err = repository.NewFileLedgerStore(cfg.Trading.DataDir)
		if err != nil {
			log.Fatalf("Failed to initialize file ledger store: %v", err)
		}
		settingsStore, err = repository.NewFileSettingsStore(cfg.Trading.DataDir)
		if err != nil {
			log.Fatalf("Failed to initialize file settings store: %v", err)
		}
		storeKind = "file"
	}
	log.Printf("[OK] Using %s store", storeKind)

	// Initialize services
	marketData := service.NewMarketDataService()
	tradingService := usecase.NewTradingService(marketData, ledgerStore, settingsStore)

	// Initialize tick scheduler
	scheduler := infra.NewScheduler(tradingService, cfg.Trading.TickSchedule)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		HealthHandler:   delivery.NewHealthHandler(settingsStore, cfg.Trading.QuoteAsset, storeKind),
		SettingsHandler: delivery.NewSettingsHandler(settingsStore, tradingService),
		TradesHandler:   delivery.NewTradesHandler(tradingService),
		MarketHandler:   delivery.NewMarketHandler(marketData),
		TradeHandler:    delivery.NewTradeHandler(marketData, tradingService),
		AuthToken:       cfg.Auth.Token,
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Paper trading engine starting on %s", addr)
	log.Printf("Environment: %s", cfg.Server.Env)
	log.Printf("Quote asset: %s | Tick schedule: %s", cfg.Trading.QuoteAsset, cfg.Trading.TickSchedule)
	if cfg.Auth.Token == "" {
		log.Println("[WARN] APP_TOKEN not set, mutating endpoints are unprotected")
	}

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("[OK] Server exited gracefully")
}
