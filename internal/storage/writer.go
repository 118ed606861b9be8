package storage

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

// WriteRecords upserts recs with at most workers writes in flight and
// returns how many succeeded. A failed write is logged and skipped; it never
// aborts the batch. Write order is unspecified.
func WriteRecords(ctx context.Context, store interfaces.MarketCacheStore, recs []*models.CacheRecord, workers int, logger *common.Logger) int {
	if len(recs) == 0 {
		return 0
	}
	if workers <= 0 {
		workers = 1
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var written, failed atomic.Int64

loop:
	for _, rec := range recs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}
		wg.Add(1)
		go func(rec *models.CacheRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := store.UpsertRecord(ctx, rec); err != nil {
				failed.Add(1)
				logger.Warn().Err(err).
					Str("symbol", rec.Symbol).
					Str("date", rec.Date.String()).
					Msg("Cache write failed, skipping record")
				return
			}
			written.Add(1)
		}(rec)
	}

	wg.Wait()

	if n := failed.Load(); n > 0 {
		logger.Warn().Int64("failed", n).Int("total", len(recs)).Msg("Cache write completed with errors")
	}
	return int(written.Load())
}
