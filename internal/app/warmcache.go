package app

import (
	"context"
	"os"
	"time"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
)

func warmDisabled() bool {
	return os.Getenv("STOCKVIEW_WARM_CACHE") == "off"
}

// warmCache pre-fetches the configured symbols on startup so the first
// lookup is served from cache.
func warmCache(ctx context.Context, svc interfaces.DashboardService, symbols []string, logger *common.Logger) {
	if warmDisabled() {
		logger.Info().Msg("Warm cache: disabled via STOCKVIEW_WARM_CACHE=off")
		return
	}
	if len(symbols) == 0 {
		logger.Debug().Msg("Warm cache: no symbols configured, skipping")
		return
	}

	start := time.Now()
	logger.Info().Int("symbols", len(symbols)).Msg("Warm cache: starting")

	n := svc.WarmSymbols(ctx, symbols)

	logger.Info().
		Int("refreshed", n).
		Dur("elapsed", time.Since(start)).
		Msg("Warm cache: complete")
}
