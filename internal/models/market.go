// Package models defines data structures for stockview
package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// PricePoint is a single day's normalized price. Price is the adjusted close
// when the vendor supplies one, otherwise the raw close.
type PricePoint struct {
	Date  CalendarDate `json:"date"`
	Price float64      `json:"price"`
}

// FundamentalRecord is one quarterly fundamentals observation.
type FundamentalRecord struct {
	Date             CalendarDate  `json:"date"`
	AnnouncementDate *CalendarDate `json:"announcement_date,omitempty"`
	Revenue          null.Float    `json:"revenue"`
	GrossProfit      null.Float    `json:"gross_profit"`
	GrossMargin      null.Float    `json:"gross_margin"` // percentage
	Quarter          int           `json:"quarter"`
	FiscalYear       int           `json:"fiscal_year"`
}

// MergedRecord is a price observation joined with any fundamentals reported
// on exactly the same calendar day.
type MergedRecord struct {
	Date    CalendarDate `json:"date"`
	Price   float64      `json:"price"`
	Revenue null.Float   `json:"revenue"`
	Margin  null.Float   `json:"margin"`
}

// DerivedRecord extends a merged record with rolling revenue metrics.
type DerivedRecord struct {
	MergedRecord
	TTMRevenue null.Float `json:"ttm_revenue"`
	YoYGrowth  null.Float `json:"yoy_growth"` // percentage
}

// DateDomain is the shared time-axis range for every chart of a symbol.
type DateDomain struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// CacheRecord is the persisted form of one merged observation, keyed by
// (Symbol, Date). Writes are last-write-wins.
type CacheRecord struct {
	Symbol    string       `json:"symbol"`
	Date      CalendarDate `json:"date"`
	Price     null.Float   `json:"price"`
	Revenue   null.Float   `json:"revenue"`
	Margin    null.Float   `json:"margin"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Dashboard is the full response for one symbol lookup.
type Dashboard struct {
	Symbol    string          `json:"symbol"`
	Source    string          `json:"source"`
	Merged    []MergedRecord  `json:"merged"`
	Quarterly []DerivedRecord `json:"quarterly"`
	Domain    *DateDomain     `json:"domain"`
	FromCache bool            `json:"from_cache"`
	FetchedAt time.Time       `json:"fetched_at"`
	Warnings  []string        `json:"warnings,omitempty"`
}

// LatestPrice returns the most recent merged price, if any.
func (d *Dashboard) LatestPrice() (MergedRecord, bool) {
	if d == nil || len(d.Merged) == 0 {
		return MergedRecord{}, false
	}
	return d.Merged[len(d.Merged)-1], true
}
