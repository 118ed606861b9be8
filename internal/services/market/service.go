// Package market provides the price and fundamentals dashboard service
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/stockview/internal/clients/httpclient"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
	"github.com/bobmcallan/stockview/internal/storage"
)

const (
	defaultFetchTimeout   = 30 * time.Second
	defaultPersistTimeout = 2 * time.Minute
	defaultWriteWorkers   = 4
)

// Service implements DashboardService
type Service struct {
	source       interfaces.MarketSource
	store        interfaces.MarketCacheStore
	logger       *common.Logger
	fetchTimeout   time.Duration
	persistTimeout time.Duration
	writeWorkers   int
	historyDays    int
	freshness      time.Duration
	now            func() time.Time
}

var _ interfaces.DashboardService = (*Service)(nil)

// Option configures the service
type Option func(*Service)

// WithFetchTimeout bounds each upstream call
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithWriteWorkers sets the cache write parallelism
func WithWriteWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.writeWorkers = n
		}
	}
}

// WithPersistTimeout bounds the cache write-back that follows a fetch
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// WithPriceHistory limits price requests to the last days calendar days.
// Zero leaves the range to the vendor.
func WithPriceHistory(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.historyDays = days
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new dashboard service
func NewService(source interfaces.MarketSource, store interfaces.MarketCacheStore, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		source:         source,
		store:          store,
		logger:         logger,
		fetchTimeout:   defaultFetchTimeout,
		persistTimeout: defaultPersistTimeout,
		writeWorkers:   defaultWriteWorkers,
		freshness:      common.FreshnessMarketCache,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceName returns the active vendor name
func (s *Service) SourceName() string {
	return s.source.Name()
}

// GetDashboard returns the merged and derived view for symbol. A fresh cache
// is served unless force is set; otherwise prices and fundamentals are
// fetched concurrently, aligned, and written back to the cache.
func (s *Service) GetDashboard(ctx context.Context, symbol string, force bool) (*models.Dashboard, error) {
	symbol = models.NormalizeSymbol(symbol)
	if !models.ValidSymbol(symbol) {
		return nil, models.NewSymbolError(symbol, models.ErrInvalidSymbol, errors.New("malformed symbol"))
	}

	if !force {
		if dash := s.fromCache(ctx, symbol); dash != nil {
			return dash, nil
		}
	}

	start := time.Now()
	res, err := s.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	prices, funds := res.prices, res.funds

	dash := s.build(symbol, prices, funds)

	// Degraded fetches are returned but never cached; the last good rows stay.
	written := 0
	if res.fundErr != nil {
		s.logger.Warn().Err(res.fundErr).Str("symbol", symbol).Msg("Fundamentals unavailable, continuing with prices only")
		dash.Warnings = append(dash.Warnings, "fundamentals unavailable")
	} else {
		written = s.persist(ctx, symbol, dash.Merged, funds)
	}

	s.logger.Info().
		Str("symbol", symbol).
		Str("source", s.source.Name()).
		Int("prices", len(prices)).
		Int("fundamentals", len(funds)).
		Int("cached", written).
		Dur("elapsed", time.Since(start)).
		Msg("Dashboard built")

	return dash, nil
}

type fetchResult struct {
	prices  []models.PricePoint
	funds   []models.FundamentalRecord
	fundErr error
}

// fetch runs the price and fundamentals calls concurrently, each under its
// own timeout. A price failure is fatal; a fundamentals failure is recorded
// in the result and the fundamentals slice is left empty.
func (s *Service) fetch(ctx context.Context, symbol string) (*fetchResult, error) {
	var (
		wg       sync.WaitGroup
		prices   []models.PricePoint
		funds    []models.FundamentalRecord
		priceErr error
		fundErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		prices, priceErr = s.source.GetPrices(cctx, symbol, s.priceOptions()...)
	}()
	go func() {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
		funds, fundErr = s.source.GetFundamentals(cctx, symbol)
	}()
	wg.Wait()

	if priceErr != nil {
		s.logger.Error().Err(priceErr).Str("symbol", symbol).Msg("Price fetch failed")
		switch {
		case errors.Is(priceErr, models.ErrSourceNotConfigured):
			return nil, models.NewSymbolError(symbol, models.ErrSourceNotConfigured, nil)
		case httpclient.IsNotFound(priceErr):
			return nil, models.NewSymbolError(symbol, models.ErrInvalidSymbol, priceErr)
		default:
			return nil, models.NewSymbolError(symbol, models.ErrUpstreamUnavailable, priceErr)
		}
	}
	if len(prices) == 0 {
		return nil, models.NewSymbolError(symbol, models.ErrInvalidSymbol, errors.New("no price data"))
	}
	if fundErr != nil {
		funds = nil
	}

	return &fetchResult{prices: prices, funds: funds, fundErr: fundErr}, nil
}

func (s *Service) priceOptions() []interfaces.PriceOption {
	if s.historyDays <= 0 {
		return nil
	}
	from := s.now().UTC().AddDate(0, 0, -s.historyDays)
	return []interfaces.PriceOption{interfaces.WithDateRange(from, time.Time{})}
}

func (s *Service) build(symbol string, prices []models.PricePoint, funds []models.FundamentalRecord) *models.Dashboard {
	merged, domain := Align(prices, funds)
	return &models.Dashboard{
		Symbol:    symbol,
		Source:    s.source.Name(),
		Merged:    merged,
		Quarterly: DeriveMetrics(QuarterlySeries(funds)),
		Domain:    domain,
		FetchedAt: s.now().UTC(),
	}
}

// persist writes one row per merged record plus one per fundamentals record
// whose date matched no price. The write ignores caller cancellation and is
// bounded by persistTimeout. Failures never fail the request; an incomplete
// batch drops the symbol's rows so the cache never holds a partial series.
func (s *Service) persist(ctx context.Context, symbol string, merged []models.MergedRecord, funds []models.FundamentalRecord) int {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	now := s.now().UTC()
	recs := make([]*models.CacheRecord, 0, len(merged)+len(funds))
	seen := make(map[string]bool, len(merged))
	for _, m := range merged {
		seen[m.Date.Key()] = true
		recs = append(recs, &models.CacheRecord{
			Symbol:    symbol,
			Date:      m.Date,
			Price:     null.FloatFrom(m.Price),
			Revenue:   m.Revenue,
			Margin:    m.Margin,
			UpdatedAt: now,
		})
	}
	for _, f := range funds {
		if seen[f.Date.Key()] {
			continue
		}
		seen[f.Date.Key()] = true
		recs = append(recs, &models.CacheRecord{
			Symbol:    symbol,
			Date:      f.Date,
			Revenue:   f.Revenue,
			Margin:    f.GrossMargin,
			UpdatedAt: now,
		})
	}

	written := storage.WriteRecords(ctx, s.store, recs, s.writeWorkers, s.logger)
	if written == len(recs) {
		return written
	}

	s.logger.Warn().Str("symbol", symbol).Int("written", written).Int("total", len(recs)).Msg("Incomplete cache write, discarding")
	if _, err := s.store.DeleteSymbol(ctx, symbol); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("Failed to discard incomplete cache write")
	}
	return 0
}

// fromCache rebuilds a dashboard from cached rows when the newest row is
// within the freshness window. Read errors count as a miss.
func (s *Service) fromCache(ctx context.Context, symbol string) *models.Dashboard {
	rows, err := s.store.ListRecords(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("Cache read failed, fetching upstream")
		return nil
	}
	if len(rows) == 0 {
		return nil
	}

	var newest time.Time
	for _, r := range rows {
		if r.UpdatedAt.After(newest) {
			newest = r.UpdatedAt
		}
	}
	if !common.IsFreshAt(newest, s.now(), s.freshness) {
		s.logger.Debug().Str("symbol", symbol).Msg("Cache stale")
		return nil
	}

	var prices []models.PricePoint
	var funds []models.FundamentalRecord
	for _, r := range rows {
		if r.Price.Valid {
			prices = append(prices, models.PricePoint{Date: r.Date, Price: r.Price.Float64})
		}
		if r.Revenue.Valid || r.Margin.Valid {
			funds = append(funds, models.FundamentalRecord{
				Date:        r.Date,
				Revenue:     r.Revenue,
				GrossMargin: r.Margin,
				Quarter:     models.QuarterOf(r.Date),
				FiscalYear:  r.Date.Year(),
			})
		}
	}
	if len(prices) == 0 {
		return nil
	}

	dash := s.build(symbol, prices, funds)
	dash.FromCache = true
	dash.FetchedAt = newest.UTC()

	s.logger.Debug().Str("symbol", symbol).Int("rows", len(rows)).Msg("Dashboard served from cache")
	return dash
}

// WarmSymbols force-refreshes each symbol and returns how many succeeded.
func (s *Service) WarmSymbols(ctx context.Context, symbols []string) int {
	ok := 0
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.GetDashboard(ctx, sym, true); err != nil {
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("Cache warm failed")
			continue
		}
		ok++
	}
	s.logger.Info().Int("requested", len(symbols)).Int("refreshed", ok).Msg("Cache warm complete")
	return ok
}

// InvalidateSymbol drops every cached row for symbol
func (s *Service) InvalidateSymbol(ctx context.Context, symbol string) (int, error) {
	symbol = models.NormalizeSymbol(symbol)
	if !models.ValidSymbol(symbol) {
		return 0, models.NewSymbolError(symbol, models.ErrInvalidSymbol, errors.New("malformed symbol"))
	}
	n, err := s.store.DeleteSymbol(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate %s: %w", symbol, err)
	}
	return n, nil
}
