package infra

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"papertrade/internal/usecase"
)

// DefaultTickSchedule runs the engine once per minute.
const DefaultTickSchedule = "*/1 * * * *"

// Scheduler drives the trading engine on a cron schedule. The engine
// serializes ticks itself, so an overlapping fire just waits its turn.
type Scheduler struct {
	cron           *cron.Cron
	tradingService *usecase.TradingService
	schedule       string
}

// NewScheduler creates a scheduler for the given cron expression.
// schedule defaults to DefaultTickSchedule if empty.
func NewScheduler(tradingService *usecase.TradingService, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultTickSchedule
	}
	return &Scheduler{
		cron:           cron.New(),
		tradingService: tradingService,
		schedule:       schedule,
	}
}

// Start registers the tick job and starts the cron loop.
func (s *Scheduler) Start() error {
	log.Printf("Starting scheduler... [Schedule: %s]", s.schedule)

	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx := context.Background()

		result, err := s.tradingService.RunTick(ctx)
		if err != nil {
			log.Printf("ERROR: Scheduled tick failed: %v", err)
			return
		}

		log.Printf("[CRON] Tick complete: processed=%d opened=%d closed=%d errors=%d effective_limit=%.2f",
			result.Processed, result.Opened, result.Closed, len(result.Errors), result.EffectiveLimit)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[OK] Scheduler started successfully")
	return nil
}

// Stop stops the scheduler gracefully.
func (s *Scheduler) Stop() {
	log.Println("Stopping scheduler...")
	s.cron.Stop()
	log.Println("[OK] Scheduler stopped")
}
