package models

import (
	"math"
	"regexp"
	"strings"

	"github.com/guregu/null/v6"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-^=]{0,19}$`)

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidSymbol reports whether an already-normalized symbol is well formed.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// ResolvePrice picks the adjusted close when present and positive, else the
// raw close.
func ResolvePrice(close float64, adjClose null.Float) float64 {
	if adjClose.Valid && adjClose.Float64 > 0 && isFinite(adjClose.Float64) {
		return adjClose.Float64
	}
	return close
}

// DeriveMargin computes grossProfit / revenue * 100. Null when either operand
// is null or revenue is zero.
func DeriveMargin(grossProfit, revenue null.Float) null.Float {
	if !grossProfit.Valid || !revenue.Valid || revenue.Float64 == 0 {
		return null.Float{}
	}
	m := grossProfit.Float64 / revenue.Float64 * 100
	if !isFinite(m) {
		return null.Float{}
	}
	return null.FloatFrom(m)
}

// ResolveMargin uses a vendor-supplied margin when present, scaling a
// fraction in [0,1] to a percentage, and otherwise derives it.
func ResolveMargin(vendorMargin, grossProfit, revenue null.Float) null.Float {
	if vendorMargin.Valid && isFinite(vendorMargin.Float64) {
		v := vendorMargin.Float64
		if v >= 0 && v <= 1 {
			v *= 100
		}
		return null.FloatFrom(v)
	}
	return DeriveMargin(grossProfit, revenue)
}

// QuarterOf returns the calendar quarter (1-4) of d.
func QuarterOf(d CalendarDate) int {
	return (int(d.Month())-1)/3 + 1
}

// ValidQuarter reports whether q is a quarter number.
func ValidQuarter(q int) bool {
	return q >= 1 && q <= 4
}

// NewFundamentalRecord assembles a record from vendor values, deriving the
// margin and falling back to the calendar quarter and year of the date when
// the vendor period fields are missing or out of range.
func NewFundamentalRecord(date CalendarDate, revenue, grossProfit, vendorMargin null.Float, quarter, fiscalYear int) FundamentalRecord {
	if !ValidQuarter(quarter) {
		quarter = QuarterOf(date)
	}
	if fiscalYear <= 0 {
		fiscalYear = date.Year()
	}
	return FundamentalRecord{
		Date:        date,
		Revenue:     revenue,
		GrossProfit: grossProfit,
		GrossMargin: ResolveMargin(vendorMargin, grossProfit, revenue),
		Quarter:     quarter,
		FiscalYear:  fiscalYear,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
