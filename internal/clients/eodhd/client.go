// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/bobmcallan/stockview/internal/clients/httpclient"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

const (
	Name            = "eodhd"
	DefaultBaseURL  = "https://eodhd.com/api"
	DefaultExchange = "US"
)

// ClientOption configures the client
type ClientOption = httpclient.Option

var (
	WithBaseURL   = httpclient.WithBaseURL
	WithLogger    = httpclient.WithLogger
	WithRateLimit = httpclient.WithRateLimit
	WithTimeout   = httpclient.WithTimeout
)

// Client implements interfaces.MarketSource for EODHD, whose income
// statement arrives as a map of period date to statement fields.
type Client struct {
	base *httpclient.Base
}

var _ interfaces.MarketSource = (*Client)(nil)

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	opts = append([]ClientOption{httpclient.WithStaticParam("fmt", "json")}, opts...)
	return &Client{base: httpclient.New(Name, DefaultBaseURL, apiKey, "api_token", opts...)}
}

// Name returns the vendor name
func (c *Client) Name() string { return Name }

func (c *Client) logger() *common.Logger { return c.base.Logger }

// Ticker adds the default exchange suffix EODHD requires when none is given.
func Ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + DefaultExchange
}

type eodBarResponse struct {
	Date          string               `json:"date"`
	Close         httpclient.FlexFloat `json:"close"`
	AdjustedClose httpclient.FlexFloat `json:"adjusted_close"`
}

// GetPrices retrieves end-of-day price data in ascending order
func (c *Client) GetPrices(ctx context.Context, symbol string, opts ...interfaces.PriceOption) ([]models.PricePoint, error) {
	p := interfaces.ApplyPriceOptions(opts...)

	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !p.From.IsZero() {
		params.Set("from", p.From.Format(models.DateLayout))
	}
	if !p.To.IsZero() {
		params.Set("to", p.To.Format(models.DateLayout))
	}

	var bars []eodBarResponse
	if err := c.base.GetJSON(ctx, fmt.Sprintf("/eod/%s", url.PathEscape(Ticker(symbol))), params, &bars); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		date, err := models.ParseCalendarDate(bar.Date)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Str("date", bar.Date).Msg("Dropping bar without date")
			continue
		}
		if bar.Close.Malformed || !bar.Close.Value.Valid {
			c.logger().Warn().Str("symbol", symbol).Str("date", bar.Date).Msg("Skipping malformed EOD bar")
			continue
		}
		points = append(points, models.PricePoint{
			Date:  date,
			Price: models.ResolvePrice(bar.Close.Value.Float64, bar.AdjustedClose.Value),
		})
	}

	return points, nil
}

// incomeStatementRow is one entry of Financials::Income_Statement::quarterly.
type incomeStatementRow struct {
	Date         string               `json:"date"`
	FilingDate   string               `json:"filing_date"`
	TotalRevenue httpclient.FlexFloat `json:"totalRevenue"`
	GrossProfit  httpclient.FlexFloat `json:"grossProfit"`
}

// GetFundamentals retrieves quarterly income statements. The map key is used
// as the period date when the row itself carries none.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) ([]models.FundamentalRecord, error) {
	params := url.Values{}
	params.Set("filter", "Financials::Income_Statement::quarterly")

	var quarterly map[string]incomeStatementRow
	if err := c.base.GetJSON(ctx, fmt.Sprintf("/fundamentals/%s", url.PathEscape(Ticker(symbol))), params, &quarterly); err != nil {
		return nil, err
	}

	records := make([]models.FundamentalRecord, 0, len(quarterly))
	for key, row := range quarterly {
		raw := row.Date
		if raw == "" {
			raw = key
		}
		date, err := models.ParseCalendarDate(raw)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Str("key", key).Msg("Dropping statement without date")
			continue
		}
		if row.TotalRevenue.Malformed || row.GrossProfit.Malformed {
			c.logger().Warn().Str("symbol", symbol).Str("date", raw).Msg("Skipping malformed income statement")
			continue
		}

		rec := models.NewFundamentalRecord(date, row.TotalRevenue.Value, row.GrossProfit.Value, null.Float{}, 0, 0)
		if fd, err := models.ParseCalendarDate(row.FilingDate); err == nil {
			rec.AnnouncementDate = &fd
		}
		records = append(records, rec)
	}

	return records, nil
}
