package interfaces

import (
	"context"

	"github.com/bobmcallan/stockview/internal/models"
)

// MarketCacheStore persists merged observations keyed by (symbol, date).
// Upserts are last-write-wins.
type MarketCacheStore interface {
	// UpsertRecord inserts or replaces the row for rec.Symbol and rec.Date
	UpsertRecord(ctx context.Context, rec *models.CacheRecord) error

	// ListRecords returns every row for symbol sorted ascending by date
	ListRecords(ctx context.Context, symbol string) ([]*models.CacheRecord, error)

	// DeleteSymbol removes every row for symbol and returns the count removed
	DeleteSymbol(ctx context.Context, symbol string) (int, error)

	// Close releases the underlying connection
	Close() error
}
