// Package fmp provides a client for the Financial Modeling Prep API
package fmp

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobmcallan/stockview/internal/clients/httpclient"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

const (
	Name           = "fmp"
	DefaultBaseURL = "https://financialmodelingprep.com/api/v3"
	// QuarterLimit is the number of quarterly statements requested.
	QuarterLimit = 20
)

// ClientOption configures the client
type ClientOption = httpclient.Option

var (
	WithBaseURL   = httpclient.WithBaseURL
	WithLogger    = httpclient.WithLogger
	WithRateLimit = httpclient.WithRateLimit
	WithTimeout   = httpclient.WithTimeout
)

// Client implements interfaces.MarketSource for FMP's flat income statement
type Client struct {
	base *httpclient.Base
}

var _ interfaces.MarketSource = (*Client)(nil)

// NewClient creates a new FMP client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	return &Client{base: httpclient.New(Name, DefaultBaseURL, apiKey, "apikey", opts...)}
}

// Name returns the vendor name
func (c *Client) Name() string { return Name }

func (c *Client) logger() *common.Logger { return c.base.Logger }

type historicalPriceResponse struct {
	Symbol     string          `json:"symbol"`
	Historical []historicalBar `json:"historical"`
}

type historicalBar struct {
	Date     string               `json:"date"`
	Close    httpclient.FlexFloat `json:"close"`
	AdjClose httpclient.FlexFloat `json:"adjClose"`
}

// GetPrices retrieves daily prices from historical-price-full
func (c *Client) GetPrices(ctx context.Context, symbol string, opts ...interfaces.PriceOption) ([]models.PricePoint, error) {
	p := interfaces.ApplyPriceOptions(opts...)
	params := url.Values{}
	if !p.From.IsZero() {
		params.Set("from", p.From.Format(models.DateLayout))
	}
	if !p.To.IsZero() {
		params.Set("to", p.To.Format(models.DateLayout))
	}

	var resp historicalPriceResponse
	if err := c.base.GetJSON(ctx, "/historical-price-full/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(resp.Historical))
	for _, bar := range resp.Historical {
		date, err := models.ParseCalendarDate(bar.Date)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Str("date", bar.Date).Msg("Dropping price without date")
			continue
		}
		if bar.Close.Malformed || !bar.Close.Value.Valid {
			c.logger().Warn().Str("symbol", symbol).Str("date", bar.Date).Msg("Skipping malformed price record")
			continue
		}
		points = append(points, models.PricePoint{
			Date:  date,
			Price: models.ResolvePrice(bar.Close.Value.Float64, bar.AdjClose.Value),
		})
	}

	return points, nil
}

type incomeStatement struct {
	Date             string               `json:"date"`
	Symbol           string               `json:"symbol"`
	FillingDate      string               `json:"fillingDate"`
	AcceptedDate     string               `json:"acceptedDate"`
	CalendarYear     httpclient.FlexFloat `json:"calendarYear"`
	Period           string               `json:"period"`
	Revenue          httpclient.FlexFloat `json:"revenue"`
	GrossProfit      httpclient.FlexFloat `json:"grossProfit"`
	GrossProfitRatio httpclient.FlexFloat `json:"grossProfitRatio"`
}

// GetFundamentals retrieves quarterly income statements
func (c *Client) GetFundamentals(ctx context.Context, symbol string) ([]models.FundamentalRecord, error) {
	params := url.Values{}
	params.Set("period", "quarter")
	params.Set("limit", strconv.Itoa(QuarterLimit))

	var statements []incomeStatement
	if err := c.base.GetJSON(ctx, "/income-statement/"+url.PathEscape(symbol), params, &statements); err != nil {
		return nil, err
	}

	records := make([]models.FundamentalRecord, 0, len(statements))
	for _, st := range statements {
		date, err := models.ParseCalendarDate(st.Date)
		if err != nil {
			c.logger().Debug().Str("symbol", symbol).Msg("Dropping income statement without date")
			continue
		}
		if st.Revenue.Malformed || st.GrossProfit.Malformed || st.GrossProfitRatio.Malformed {
			c.logger().Warn().Str("symbol", symbol).Str("date", st.Date).Msg("Skipping malformed income statement")
			continue
		}

		rec := models.NewFundamentalRecord(date, st.Revenue.Value, st.GrossProfit.Value, st.GrossProfitRatio.Value,
			periodQuarter(st.Period), st.CalendarYear.Int())

		announced := st.FillingDate
		if announced == "" {
			announced = st.AcceptedDate
		}
		if ad, err := models.ParseCalendarDate(announced); err == nil {
			rec.AnnouncementDate = &ad
		}

		records = append(records, rec)
	}

	return records, nil
}

// periodQuarter maps "Q1".."Q4" to 1..4, anything else to 0.
func periodQuarter(period string) int {
	period = strings.ToUpper(strings.TrimSpace(period))
	if len(period) != 2 || period[0] != 'Q' {
		return 0
	}
	q, err := strconv.Atoi(period[1:])
	if err != nil || !models.ValidQuarter(q) {
		return 0
	}
	return q
}
