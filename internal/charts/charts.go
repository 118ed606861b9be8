// Package charts renders dashboard series as PNG line charts. Every chart of
// a symbol shares the dashboard's date domain so their x-axes line up.
package charts

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/stockview/internal/models"
)

// Chart kinds served by the API.
const (
	KindPrice   = "price"
	KindRevenue = "revenue"
	KindMargin  = "margin"
)

const (
	width  = 900
	height = 400
)

// Render dispatches on kind.
func Render(kind string, dash *models.Dashboard) ([]byte, error) {
	switch strings.ToLower(kind) {
	case KindPrice:
		return RenderPrice(dash)
	case KindRevenue:
		return RenderRevenue(dash)
	case KindMargin:
		return RenderMargin(dash)
	}
	return nil, fmt.Errorf("unknown chart kind %q", kind)
}

// RenderPrice draws the daily price line.
func RenderPrice(dash *models.Dashboard) ([]byte, error) {
	var xs []time.Time
	var ys []float64
	for _, m := range dash.Merged {
		xs = append(xs, m.Date.Time)
		ys = append(ys, m.Price)
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(xs))
	}

	price := chart.TimeSeries{
		Name: "Price",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2,
		},
		XValues: xs,
		YValues: ys,
	}

	return render(dash, dash.Symbol+" Price", func(v float64) string {
		return fmt.Sprintf("$%.2f", v)
	}, price)
}

// RenderRevenue draws quarterly revenue and trailing twelve month revenue,
// both in billions.
func RenderRevenue(dash *models.Dashboard) ([]byte, error) {
	var qx, ttmx []time.Time
	var qy, ttmy []float64
	for _, q := range dash.Quarterly {
		if q.Revenue.Valid {
			qx = append(qx, q.Date.Time)
			qy = append(qy, q.Revenue.Float64/1e9)
		}
		if q.TTMRevenue.Valid {
			ttmx = append(ttmx, q.Date.Time)
			ttmy = append(ttmy, q.TTMRevenue.Float64/1e9)
		}
	}
	if len(qx) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(qx))
	}

	series := []chart.Series{chart.TimeSeries{
		Name: "Quarterly Revenue",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"), // green-600
			StrokeWidth: 2,
			DotWidth:    3,
			DotColor:    drawing.ColorFromHex("16a34a"),
		},
		XValues: qx,
		YValues: qy,
	}}
	// a single TTM point cannot be drawn as a line
	if len(ttmx) >= 2 {
		series = append(series, chart.TimeSeries{
			Name: "TTM Revenue",
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: ttmx,
			YValues: ttmy,
		})
	}

	return render(dash, dash.Symbol+" Revenue", func(v float64) string {
		return fmt.Sprintf("$%.1fB", v)
	}, series...)
}

// RenderMargin draws the quarterly gross margin percentage.
func RenderMargin(dash *models.Dashboard) ([]byte, error) {
	var xs []time.Time
	var ys []float64
	for _, q := range dash.Quarterly {
		if !q.Margin.Valid {
			continue
		}
		xs = append(xs, q.Date.Time)
		ys = append(ys, q.Margin.Float64)
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(xs))
	}

	margin := chart.TimeSeries{
		Name: "Gross Margin",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("d97706"), // amber-600
			StrokeWidth: 2,
			DotWidth:    3,
			DotColor:    drawing.ColorFromHex("d97706"),
		},
		XValues: xs,
		YValues: ys,
	}

	return render(dash, dash.Symbol+" Gross Margin", func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	}, margin)
}

func render(dash *models.Dashboard, title string, yFormat func(float64) string, series ...chart.Series) ([]byte, error) {
	xAxis := chart.XAxis{
		TickPosition: chart.TickPositionBetweenTicks,
		ValueFormatter: func(v interface{}) string {
			if t, ok := v.(float64); ok {
				return chart.TimeFromFloat64(t).Format("Jan 06")
			}
			return ""
		},
	}
	if d := dash.Domain; d != nil && d.End.After(d.Start) {
		xAxis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(d.Start.Time),
			Max: chart.TimeToFloat64(d.End.Time),
		}
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: xAxis,
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return yFormat(f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
