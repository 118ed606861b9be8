package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/models"
)

func newTestStore(t *testing.T) *CacheStore {
	t.Helper()
	s, err := NewCacheStore(filepath.Join(t.TempDir(), "cache", "market.db"), common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(symbol string, day int, price float64) *models.CacheRecord {
	return &models.CacheRecord{
		Symbol:    symbol,
		Date:      models.NewCalendarDate(2024, time.February, day),
		Price:     null.FloatFrom(price),
		UpdatedAt: time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestCacheStore_UpsertAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRecord(ctx, rec("AAPL", 5, 190)))
	require.NoError(t, s.UpsertRecord(ctx, rec("AAPL", 1, 185)))
	fund := &models.CacheRecord{
		Symbol:    "AAPL",
		Date:      models.NewCalendarDate(2024, time.February, 3),
		Revenue:   null.FloatFrom(119575000000),
		Margin:    null.FloatFrom(45.9),
		UpdatedAt: time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.UpsertRecord(ctx, fund))
	require.NoError(t, s.UpsertRecord(ctx, rec("MSFT", 1, 400)))

	rows, err := s.ListRecords(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2024-02-01", rows[0].Date.String())
	assert.Equal(t, "2024-02-03", rows[1].Date.String())
	assert.Equal(t, "2024-02-05", rows[2].Date.String())

	assert.False(t, rows[1].Price.Valid, "fundamentals-only row has null price")
	assert.Equal(t, 119575000000.0, rows[1].Revenue.Float64)
	assert.Equal(t, 45.9, rows[1].Margin.Float64)
	assert.False(t, rows[0].Revenue.Valid)
	assert.True(t, rows[0].UpdatedAt.Equal(time.Date(2024, 2, 20, 12, 0, 0, 0, time.UTC)))
}

func TestCacheStore_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRecord(ctx, rec("AAPL", 1, 100)))
	second := rec("AAPL", 1, 101)
	second.Revenue = null.FloatFrom(5)
	require.NoError(t, s.UpsertRecord(ctx, second))

	rows, err := s.ListRecords(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 101.0, rows[0].Price.Float64)
	assert.Equal(t, 5.0, rows[0].Revenue.Float64)
}

func TestCacheStore_ParallelUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for day := 1; day <= 28; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			assert.NoError(t, s.UpsertRecord(ctx, rec("AAPL", day, float64(day))))
		}(day)
	}
	wg.Wait()

	rows, err := s.ListRecords(ctx, "AAPL")
	require.NoError(t, err)
	assert.Len(t, rows, 28)
}

func TestCacheStore_DeleteSymbol(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRecord(ctx, rec("AAPL", 1, 1)))
	require.NoError(t, s.UpsertRecord(ctx, rec("AAPL", 2, 2)))
	require.NoError(t, s.UpsertRecord(ctx, rec("MSFT", 1, 3)))

	n, err := s.DeleteSymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := s.ListRecords(ctx, "AAPL")
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = s.ListRecords(ctx, "MSFT")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
