package storage

import (
	"context"

	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

// NoopStore discards writes and always misses.
type NoopStore struct{}

var _ interfaces.MarketCacheStore = NoopStore{}

func (NoopStore) UpsertRecord(context.Context, *models.CacheRecord) error { return nil }

func (NoopStore) ListRecords(context.Context, string) ([]*models.CacheRecord, error) {
	return nil, nil
}

func (NoopStore) DeleteSymbol(context.Context, string) (int, error) { return 0, nil }

func (NoopStore) Close() error { return nil }
