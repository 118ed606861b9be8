package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
)

const defaultWarmSchedule = "0 0 */6 * * *"

// WarmScheduler force-refreshes a fixed symbol list on a cron schedule.
type WarmScheduler struct {
	svc     interfaces.DashboardService
	symbols []string
	cron    *cron.Cron
	logger  *common.Logger
	timeout time.Duration
}

// NewWarmScheduler creates a scheduler; Start must be called to run it.
func NewWarmScheduler(svc interfaces.DashboardService, symbols []string, logger *common.Logger) *WarmScheduler {
	return &WarmScheduler{
		svc:     svc,
		symbols: symbols,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		timeout: 30 * time.Minute,
	}
}

// Start registers the refresh job. schedule uses the six-field cron format
// with a leading seconds field.
func (s *WarmScheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = defaultWarmSchedule
	}

	if _, err := s.cron.AddFunc(schedule, s.RunNow); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info().
		Str("schedule", schedule).
		Int("symbols", len(s.symbols)).
		Msg("Warm scheduler started")
	return nil
}

// Stop halts the scheduler and waits for a running refresh to finish.
func (s *WarmScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Warm scheduler stopped")
}

// RunNow refreshes every symbol synchronously.
func (s *WarmScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n := s.svc.WarmSymbols(ctx, s.symbols)

	s.logger.Info().
		Int("refreshed", n).
		Int("requested", len(s.symbols)).
		Dur("duration", time.Since(start)).
		Msg("Scheduled warm completed")
}
