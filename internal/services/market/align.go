package market

import (
	"sort"

	"github.com/bobmcallan/stockview/internal/models"
)

// Align joins daily prices with quarterly fundamentals on exact calendar day.
// Both inputs are stable-sorted by date (copies; callers' slices are left
// untouched) and the first record of any duplicated date wins. One merged
// record is emitted per surviving price; revenue and margin are null unless
// a fundamentals record falls on exactly that day.
//
// The returned domain spans the earliest and latest date across both inputs.
// An empty input contributes no bound; when both are empty the domain is nil.
func Align(prices []models.PricePoint, fundamentals []models.FundamentalRecord) ([]models.MergedRecord, *models.DateDomain) {
	sortedPrices := sortPrices(prices)
	sortedFunds := sortFundamentals(fundamentals)

	byDay := make(map[string]models.FundamentalRecord, len(sortedFunds))
	for _, f := range sortedFunds {
		byDay[f.Date.Key()] = f
	}

	merged := make([]models.MergedRecord, 0, len(sortedPrices))
	for _, p := range sortedPrices {
		rec := models.MergedRecord{Date: p.Date, Price: p.Price}
		if f, ok := byDay[p.Date.Key()]; ok {
			rec.Revenue = f.Revenue
			rec.Margin = f.GrossMargin
		}
		merged = append(merged, rec)
	}

	return merged, domainOf(sortedPrices, sortedFunds)
}

func domainOf(prices []models.PricePoint, funds []models.FundamentalRecord) *models.DateDomain {
	var dd *models.DateDomain
	extend := func(first, last models.CalendarDate) {
		if dd == nil {
			dd = &models.DateDomain{Start: first, End: last}
			return
		}
		if first.Before(dd.Start) {
			dd.Start = first
		}
		if last.After(dd.End) {
			dd.End = last
		}
	}
	if len(prices) > 0 {
		extend(prices[0].Date, prices[len(prices)-1].Date)
	}
	if len(funds) > 0 {
		extend(funds[0].Date, funds[len(funds)-1].Date)
	}
	return dd
}

// sortPrices returns a date-ascending copy with duplicate days removed.
func sortPrices(in []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	n := 0
	for i, p := range out {
		if i > 0 && p.Date.Equal(out[n-1].Date) {
			continue
		}
		out[n] = p
		n++
	}
	return out[:n]
}

// sortFundamentals returns a date-ascending copy with duplicate days removed.
func sortFundamentals(in []models.FundamentalRecord) []models.FundamentalRecord {
	out := make([]models.FundamentalRecord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	n := 0
	for i, f := range out {
		if i > 0 && f.Date.Equal(out[n-1].Date) {
			continue
		}
		out[n] = f
		n++
	}
	return out[:n]
}

// QuarterlySeries prepares fundamentals for DeriveMetrics: records without
// revenue or with a quarter outside 1-4 are dropped, the rest are ordered by
// period date and mapped to merged records carrying revenue and margin.
func QuarterlySeries(fundamentals []models.FundamentalRecord) []models.MergedRecord {
	kept := make([]models.FundamentalRecord, 0, len(fundamentals))
	for _, f := range fundamentals {
		if !f.Revenue.Valid || !models.ValidQuarter(f.Quarter) {
			continue
		}
		kept = append(kept, f)
	}

	sorted := sortFundamentals(kept)
	series := make([]models.MergedRecord, len(sorted))
	for i, f := range sorted {
		series[i] = models.MergedRecord{
			Date:    f.Date,
			Revenue: f.Revenue,
			Margin:  f.GrossMargin,
		}
	}
	return series
}
