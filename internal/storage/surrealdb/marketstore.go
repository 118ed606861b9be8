// Package surrealdb implements the market cache on a hosted SurrealDB instance.
package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

const table = "market_cache"

// CacheStore implements interfaces.MarketCacheStore using SurrealDB.
type CacheStore struct {
	db     *surrealdb.DB
	logger *common.Logger
	owned  bool
}

var _ interfaces.MarketCacheStore = (*CacheStore)(nil)

// cacheRow is the stored document. Nullable numbers are pointers so they
// round-trip as NONE/null rather than zero.
type cacheRow struct {
	Symbol    string    `json:"symbol"`
	Date      string    `json:"date"`
	Price     *float64  `json:"price"`
	Revenue   *float64  `json:"revenue"`
	Margin    *float64  `json:"margin"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCacheStore connects, signs in, selects the namespace and database, and
// ensures the cache table exists.
func NewCacheStore(ctx context.Context, cfg common.SurrealDBConfig, logger *common.Logger) (*CacheStore, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	s, err := NewCacheStoreFromDB(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}
	s.owned = true

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB market cache initialized")

	return s, nil
}

// NewCacheStoreFromDB wraps an existing connection. Close leaves it open.
func NewCacheStoreFromDB(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*CacheStore, error) {
	// SurrealDB v3 errors on querying non-existent tables
	stmts := []string{
		fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table),
		fmt.Sprintf("DEFINE INDEX IF NOT EXISTS %s_symbol ON %s FIELDS symbol", table, table),
	}
	for _, sql := range stmts {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define %s: %w", table, err)
		}
	}
	return &CacheStore{db: db, logger: logger}, nil
}

func recordID(symbol string, date models.CalendarDate) surrealmodels.RecordID {
	return surrealmodels.NewRecordID(table, symbol+"_"+date.Key())
}

// UpsertRecord replaces the document for (symbol, date)
func (s *CacheStore) UpsertRecord(ctx context.Context, rec *models.CacheRecord) error {
	row := cacheRow{
		Symbol:    rec.Symbol,
		Date:      rec.Date.Key(),
		Price:     rec.Price.Ptr(),
		Revenue:   rec.Revenue.Ptr(),
		Margin:    rec.Margin.Ptr(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	vars := map[string]any{"rid": recordID(rec.Symbol, rec.Date), "data": row}
	if _, err := surrealdb.Query[[]cacheRow](ctx, s.db, "UPSERT $rid CONTENT $data", vars); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", rec.Symbol, rec.Date, err)
	}
	return nil
}

// ListRecords returns every row for symbol sorted ascending by date
func (s *CacheStore) ListRecords(ctx context.Context, symbol string) ([]*models.CacheRecord, error) {
	sql := fmt.Sprintf("SELECT symbol, date, price, revenue, margin, updated_at FROM %s WHERE symbol = $symbol ORDER BY date ASC", table)
	results, err := surrealdb.Query[[]cacheRow](ctx, s.db, sql, map[string]any{"symbol": symbol})
	if err != nil {
		return nil, fmt.Errorf("failed to list cache rows: %w", err)
	}

	var out []*models.CacheRecord
	if results == nil || len(*results) == 0 {
		return out, nil
	}
	for _, row := range (*results)[0].Result {
		date, err := models.ParseCalendarDate(row.Date)
		if err != nil {
			s.logger.Warn().Str("symbol", symbol).Str("date", row.Date).Msg("Skipping cache row with bad date")
			continue
		}
		out = append(out, &models.CacheRecord{
			Symbol:    row.Symbol,
			Date:      date,
			Price:     null.FloatFromPtr(row.Price),
			Revenue:   null.FloatFromPtr(row.Revenue),
			Margin:    null.FloatFromPtr(row.Margin),
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

// DeleteSymbol removes every row for symbol
func (s *CacheStore) DeleteSymbol(ctx context.Context, symbol string) (int, error) {
	sql := fmt.Sprintf("DELETE %s WHERE symbol = $symbol RETURN BEFORE", table)
	results, err := surrealdb.Query[[]cacheRow](ctx, s.db, sql, map[string]any{"symbol": symbol})
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache rows: %w", err)
	}

	count := 0
	if results != nil && len(*results) > 0 {
		count = len((*results)[0].Result)
	}
	return count, nil
}

// Close closes the connection when this store opened it
func (s *CacheStore) Close() error {
	if s.owned {
		s.db.Close(context.Background())
	}
	return nil
}
