package main

import (
	"fmt"
	"io"

	"github.com/guregu/null/v6"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bobmcallan/stockview/internal/models"
)

type renderOptions struct {
	Quarters int // 0 shows all
	Prices   int
}

// renderDashboard prints a summary header, the latest prices and the
// quarterly table, newest first.
func renderDashboard(w io.Writer, dash *models.Dashboard, opts renderOptions) {
	source := dash.Source
	if dash.FromCache {
		source += " (cached " + dash.FetchedAt.Format("2006-01-02 15:04") + ")"
	}
	fmt.Fprintln(w, text.Bold.Sprint(dash.Symbol)+"  "+source)
	if dash.Domain != nil {
		fmt.Fprintf(w, "Range: %s to %s\n", dash.Domain.Start, dash.Domain.End)
	}
	for _, warning := range dash.Warnings {
		fmt.Fprintln(w, text.FgYellow.Sprint("warning: "+warning))
	}
	fmt.Fprintln(w)

	if opts.Prices > 0 && len(dash.Merged) > 0 {
		pt := newTable(w)
		pt.AppendHeader(table.Row{"DATE", "PRICE", "REVENUE", "MARGIN"})
		merged := dash.Merged
		if len(merged) > opts.Prices {
			merged = merged[len(merged)-opts.Prices:]
		}
		for i := len(merged) - 1; i >= 0; i-- {
			m := merged[i]
			pt.AppendRow(table.Row{m.Date, fmt.Sprintf("%.2f", m.Price), billions(m.Revenue), percent(m.Margin)})
		}
		pt.SetColumnConfigs(rightAligned(2, 3, 4))
		pt.Render()
		fmt.Fprintln(w)
	}

	if len(dash.Quarterly) == 0 {
		fmt.Fprintln(w, "No quarterly fundamentals available.")
		return
	}

	qt := newTable(w)
	qt.AppendHeader(table.Row{"QUARTER END", "REVENUE", "GROSS MARGIN", "TTM REVENUE", "YOY"})
	rows := dash.Quarterly
	if opts.Quarters > 0 && len(rows) > opts.Quarters {
		rows = rows[len(rows)-opts.Quarters:]
	}
	for i := len(rows) - 1; i >= 0; i-- {
		q := rows[i]
		qt.AppendRow(table.Row{q.Date, billions(q.Revenue), percent(q.Margin), billions(q.TTMRevenue), growth(q.YoYGrowth)})
	}
	qt.SetColumnConfigs(rightAligned(2, 3, 4, 5))
	qt.Render()
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	return tw
}

func rightAligned(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for _, n := range cols {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	return cfgs
}

func billions(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.2fB", v.Float64/1e9)
}

func percent(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", v.Float64)
}

func growth(v null.Float) string {
	if !v.Valid {
		return "-"
	}
	s := fmt.Sprintf("%+.1f%%", v.Float64)
	if v.Float64 < 0 {
		return text.FgRed.Sprint(s)
	}
	return text.FgGreen.Sprint(s)
}
