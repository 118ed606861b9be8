// Package clients selects the market data vendor variant from configuration.
package clients

import (
	"context"
	"fmt"

	"github.com/bobmcallan/stockview/internal/clients/eodhd"
	"github.com/bobmcallan/stockview/internal/clients/fmp"
	"github.com/bobmcallan/stockview/internal/clients/httpclient"
	"github.com/bobmcallan/stockview/internal/clients/tiingo"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

// NewSource builds the vendor client named by cfg.Source. A vendor without
// an API key yields an error wrapping models.ErrSourceNotConfigured.
func NewSource(cfg common.ClientsConfig, logger *common.Logger) (interfaces.MarketSource, error) {
	vendor, ok := cfg.Vendor(cfg.Source)
	if !ok {
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
	if vendor.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Source, models.ErrSourceNotConfigured)
	}

	opts := []httpclient.Option{
		httpclient.WithLogger(logger),
		httpclient.WithRateLimit(vendor.RateLimit),
		httpclient.WithTimeout(vendor.GetTimeout()),
	}
	if vendor.BaseURL != "" {
		opts = append(opts, httpclient.WithBaseURL(vendor.BaseURL))
	}

	switch cfg.Source {
	case common.SourceEODHD:
		return eodhd.NewClient(vendor.APIKey, opts...), nil
	case common.SourceTiingo:
		return tiingo.NewClient(vendor.APIKey, opts...), nil
	default:
		return fmp.NewClient(vendor.APIKey, opts...), nil
	}
}

// Unconfigured is a MarketSource that fails every call with
// models.ErrSourceNotConfigured. It lets the server start without a key.
type Unconfigured struct {
	Vendor string
}

var _ interfaces.MarketSource = Unconfigured{}

func (u Unconfigured) Name() string { return u.Vendor }

func (u Unconfigured) GetPrices(context.Context, string, ...interfaces.PriceOption) ([]models.PricePoint, error) {
	return nil, models.ErrSourceNotConfigured
}

func (u Unconfigured) GetFundamentals(context.Context, string) ([]models.FundamentalRecord, error) {
	return nil, models.ErrSourceNotConfigured
}
