// Package storage selects the market cache backend and provides the
// parallel batch writer used to fill it.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/storage/sqlite"
	"github.com/bobmcallan/stockview/internal/storage/surrealdb"
)

// NewCacheStore creates a market cache based on the configuration.
// Supported backends: "sqlite" (default), "surrealdb", "none".
func NewCacheStore(ctx context.Context, config common.StorageConfig, logger *common.Logger) (interfaces.MarketCacheStore, error) {
	backend := config.Backend
	if backend == "" {
		backend = common.BackendSQLite
	}

	switch backend {
	case common.BackendSQLite:
		return sqlite.NewCacheStore(config.SQLite.Path, logger)

	case common.BackendSurrealDB:
		return surrealdb.NewCacheStore(ctx, config.SurrealDB, logger)

	case common.BackendNone:
		logger.Warn().Msg("Market cache disabled; every lookup goes upstream")
		return NoopStore{}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: sqlite, surrealdb, none)", backend)
	}
}
