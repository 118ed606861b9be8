package market

import (
	"github.com/guregu/null/v6"

	"github.com/bobmcallan/stockview/internal/models"
)

// Window sizes for positional metrics. Records are assumed to be one
// quarter apart; gaps are not detected.
const (
	ttmWindow = 4
	yoyLag    = 4
)

// DeriveMetrics computes trailing-twelve-month revenue and year-over-year
// revenue growth for an ascending series.
//
// TTM at index i (i >= 3) is the sum of the revenue at i-3..i with null
// members counted as 0. YoY at index i (i >= 4) is the percentage change
// from i-4; it is null when either revenue is null or the earlier one is 0.
func DeriveMetrics(series []models.MergedRecord) []models.DerivedRecord {
	out := make([]models.DerivedRecord, len(series))
	for i, rec := range series {
		out[i] = models.DerivedRecord{
			MergedRecord: rec,
			TTMRevenue:   ttmAt(series, i),
			YoYGrowth:    yoyAt(series, i),
		}
	}
	return out
}

func ttmAt(series []models.MergedRecord, i int) null.Float {
	if i < ttmWindow-1 {
		return null.Float{}
	}
	sum := 0.0
	for j := i - ttmWindow + 1; j <= i; j++ {
		sum += revenueOrZero(series[j].Revenue)
	}
	return null.FloatFrom(sum)
}

func yoyAt(series []models.MergedRecord, i int) null.Float {
	if i < yoyLag {
		return null.Float{}
	}
	cur, prev := series[i].Revenue, series[i-yoyLag].Revenue
	if !cur.Valid || !prev.Valid || prev.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((cur.Float64 - prev.Float64) / prev.Float64 * 100)
}

// revenueOrZero is the window policy for TTM: a null member contributes 0.
func revenueOrZero(r null.Float) float64 {
	if !r.Valid {
		return 0
	}
	return r.Float64
}
