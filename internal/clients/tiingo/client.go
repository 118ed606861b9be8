// Package tiingo provides a client for the Tiingo end-of-day and
// fundamentals APIs.
package tiingo

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
	Name           = "tiingo"
	DefaultBaseURL = "https://api.tiingo.com"
)

// Statement line item tags
const (
	CodeRevenue     = "revenue"
	CodeGrossProfit = "grossProfit"
	CodeGrossMargin = "grossMargin"
)

// ClientOption configures the client
type ClientOption = httpclient.Option

var (
	WithBaseURL   = httpclient.WithBaseURL
	WithLogger    = httpclient.WithLogger
	WithRateLimit = httpclient.WithRateLimit
	WithTimeout   = httpclient.WithTimeout
)

// Client implements interfaces.MarketSource for Tiingo, whose statements
// are lists of line items tagged by dataCode.
type Client struct {
	base *httpclient.Base
}

var _ interfaces.MarketSource = (*Client)(nil)

// NewClient creates a new Tiingo client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	return &Client{base: httpclient.New(Name, DefaultBaseURL, apiKey, "token", opts...)}
}

// Name returns the vendor name
func (c *Client) Name() string { return Name }

func (c *Client) logger() *common.Logger { return c.base.Logger }

type dailyPrice struct {
	Date     string               `json:"date"`
	Close    httpclient.FlexFloat `json:"close"`
	AdjClose httpclient.FlexFloat `json:"adjClose"`
}

// GetPrices retrieves daily prices
func (c *Client) GetPrices(ctx context.Context, symbol string, opts ...interfaces.PriceOption) ([]models.PricePoint, error) {
	p := interfaces.ApplyPriceOptions(opts...)
	params := url.Values{}
	if !p.From.IsZero() {
		params.Set("startDate", p.From.Format(models.DateLayout))
	}
	if !p.To.IsZero() {
		params.Set("endDate", p.To.Format(models.DateLayout))
	}

	var rows []dailyPrice
	path := fmt.Sprintf("/tiingo/daily/%s/prices", url.PathEscape(strings.ToLower(symbol)))
	if err := c.base.GetJSON(ctx, path, params, &rows); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(rows))
	for _, row := range rows {
		date, err := models.ParseCalendarDate(row.Date)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Str("date", row.Date).Msg("Dropping price without date")
			continue
		}
		if row.Close.Malformed || !row.Close.Value.Valid {
			c.logger().Warn().Str("symbol", symbol).Str("date", row.Date).Msg("Skipping malformed price record")
			continue
		}
		points = append(points, models.PricePoint{
			Date:  date,
			Price: models.ResolvePrice(row.Close.Value.Float64, row.AdjClose.Value),
		})
	}

	return points, nil
}

type lineItem struct {
	DataCode string               `json:"dataCode"`
	Value    httpclient.FlexFloat `json:"value"`
}

type statement struct {
	Date          string `json:"date"`
	Year          int    `json:"year"`
	Quarter       int    `json:"quarter"`
	StatementData struct {
		IncomeStatement []lineItem `json:"incomeStatement"`
		Overview        []lineItem `json:"overview"`
	} `json:"statementData"`
}

// GetFundamentals retrieves quarterly statements. Quarter 0 rows are annual
// and are skipped.
func (c *Client) GetFundamentals(ctx context.Context, symbol string) ([]models.FundamentalRecord, error) {
	var statements []statement
	path := fmt.Sprintf("/tiingo/fundamentals/%s/statements", url.PathEscape(strings.ToLower(symbol)))
	if err := c.base.GetJSON(ctx, path, nil, &statements); err != nil {
		return nil, err
	}

	records := make([]models.FundamentalRecord, 0, len(statements))
	for _, st := range statements {
		if st.Quarter == 0 {
			continue
		}
		date, err := models.ParseCalendarDate(st.Date)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Msg("Dropping statement without date")
			continue
		}

		revenue, revBad := find(st.StatementData.IncomeStatement, CodeRevenue)
		gross, grossBad := find(st.StatementData.IncomeStatement, CodeGrossProfit)
		margin, marginBad := find(st.StatementData.Overview, CodeGrossMargin)
		if revBad || grossBad || marginBad {
			c.logger().Warn().Str("symbol", symbol).Str("date", st.Date).Msg("Skipping malformed statement")
			continue
		}

		records = append(records, models.NewFundamentalRecord(date, revenue, gross, margin, st.Quarter, st.Year))
	}

	return records, nil
}

// find returns the value of the first item tagged code, and whether that
// item was malformed. A missing tag is null.
func find(items []lineItem, code string) (null.Float, bool) {
	for _, it := range items {
		if it.DataCode == code {
			return it.Value.Value, it.Value.Malformed
		}
	}
	return null.Float{}, false
}
