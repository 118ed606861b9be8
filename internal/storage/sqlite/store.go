// Package sqlite implements the market cache on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

// CacheStore implements interfaces.MarketCacheStore using SQLite.
type CacheStore struct {
	db     *sql.DB
	logger *common.Logger
	mu     sync.Mutex // serialises writers; SQLite allows one at a time
}

var _ interfaces.MarketCacheStore = (*CacheStore)(nil)

// NewCacheStore opens (or creates) the database at path and runs migrations.
func NewCacheStore(path string, logger *common.Logger) (*CacheStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers proceed while a cache write is in flight.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &CacheStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite market cache opened")
	return s, nil
}

func (s *CacheStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS market_cache (
			symbol     TEXT    NOT NULL,
			date       TEXT    NOT NULL,
			price      REAL,
			revenue    REAL,
			margin     REAL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_market_cache_updated ON market_cache(symbol, updated_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRecord inserts or replaces the row for (symbol, date)
func (s *CacheStore) UpsertRecord(ctx context.Context, rec *models.CacheRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO market_cache (symbol, date, price, revenue, margin, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			price      = excluded.price,
			revenue    = excluded.revenue,
			margin     = excluded.margin,
			updated_at = excluded.updated_at`,
		rec.Symbol, rec.Date.Key(), rec.Price, rec.Revenue, rec.Margin, rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", rec.Symbol, rec.Date, err)
	}
	return nil
}

// ListRecords returns every row for symbol sorted ascending by date
func (s *CacheStore) ListRecords(ctx context.Context, symbol string) ([]*models.CacheRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, price, revenue, margin, updated_at
		FROM market_cache WHERE symbol = ? ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query market_cache: %w", err)
	}
	defer rows.Close()

	var out []*models.CacheRecord
	for rows.Next() {
		var (
			date    string
			updated int64
		)
		rec := &models.CacheRecord{Symbol: symbol}
		if err := rows.Scan(&date, &rec.Price, &rec.Revenue, &rec.Margin, &updated); err != nil {
			return nil, fmt.Errorf("scan market_cache: %w", err)
		}
		d, err := models.ParseCalendarDate(date)
		if err != nil {
			s.logger.Warn().Str("symbol", symbol).Str("date", date).Msg("Skipping cache row with bad date")
			continue
		}
		rec.Date = d
		rec.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteSymbol removes every row for symbol
func (s *CacheStore) DeleteSymbol(ctx context.Context, symbol string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM market_cache WHERE symbol = ?`, symbol)
	if err != nil {
		return 0, fmt.Errorf("delete market_cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close closes the database
func (s *CacheStore) Close() error {
	return s.db.Close()
}
