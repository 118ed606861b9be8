// Package interfaces defines service contracts for stockview
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockview/internal/models"
)

// MarketSource is one vendor variant of the price and fundamentals fetcher.
// Implementations return normalized records; ordering is not guaranteed.
type MarketSource interface {
	// Name returns the configured vendor name (fmp, eodhd, tiingo)
	Name() string

	// GetPrices retrieves daily prices, adjusted close preferred
	GetPrices(ctx context.Context, symbol string, opts ...PriceOption) ([]models.PricePoint, error)

	// GetFundamentals retrieves quarterly income statement records
	GetFundamentals(ctx context.Context, symbol string) ([]models.FundamentalRecord, error)
}

// PriceOption configures price history requests
type PriceOption func(*PriceParams)

// PriceParams holds price history query parameters
type PriceParams struct {
	From time.Time
	To   time.Time
}

// WithDateRange bounds the price history request
func WithDateRange(from, to time.Time) PriceOption {
	return func(p *PriceParams) {
		p.From = from
		p.To = to
	}
}

// ApplyPriceOptions folds opts into a PriceParams.
func ApplyPriceOptions(opts ...PriceOption) PriceParams {
	var p PriceParams
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
