package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/interfaces"
	"github.com/bobmcallan/stockview/internal/models"
)

// quarters shown in the dashboard summary
const summaryQuarters = 8

// handleGetVersion implements the get_version tool
func handleGetVersion(svc interfaces.DashboardService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := fmt.Sprintf("stockview\nVersion: %s\nBuild: %s\nCommit: %s\nSource: %s\nStatus: OK",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit(), svc.SourceName())
		return textResult(result), nil
	}
}

// handleGetStockDashboard implements the get_stock_dashboard tool
func handleGetStockDashboard(svc interfaces.DashboardService, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil || strings.TrimSpace(symbol) == "" {
			return errorResult("Error: symbol parameter is required"), nil
		}
		force := request.GetBool("force", false)

		dash, err := svc.GetDashboard(ctx, symbol, force)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("Get stock dashboard failed")
			return errorResult(fmt.Sprintf("%s. Please %s.", models.UserMessage(err), models.UserGuidance)), nil
		}

		return textResult(formatDashboard(dash)), nil
	}
}

// formatDashboard renders a dashboard as markdown.
func formatDashboard(dash *models.Dashboard) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", dash.Symbol))
	sb.WriteString(fmt.Sprintf("**Source:** %s", dash.Source))
	if dash.FromCache {
		sb.WriteString(" (cached)")
	}
	sb.WriteString("\n")
	if latest, ok := dash.LatestPrice(); ok {
		sb.WriteString(fmt.Sprintf("**Latest Price:** $%.2f on %s\n", latest.Price, latest.Date))
	}
	if dash.Domain != nil {
		sb.WriteString(fmt.Sprintf("**Date Range:** %s to %s\n", dash.Domain.Start, dash.Domain.End))
	}
	sb.WriteString(fmt.Sprintf("**Price Points:** %d\n", len(dash.Merged)))
	for _, w := range dash.Warnings {
		sb.WriteString(fmt.Sprintf("\n> Warning: %s\n", w))
	}

	if len(dash.Quarterly) == 0 {
		sb.WriteString("\nNo quarterly fundamentals available.\n")
		return sb.String()
	}

	sb.WriteString("\n## Quarterly Fundamentals\n\n")
	sb.WriteString("| Quarter End | Revenue | Gross Margin | TTM Revenue | YoY Growth |\n")
	sb.WriteString("|---|---|---|---|---|\n")

	rows := dash.Quarterly
	if len(rows) > summaryQuarters {
		rows = rows[len(rows)-summaryQuarters:]
	}
	for i := len(rows) - 1; i >= 0; i-- {
		q := rows[i]
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			q.Date,
			formatBillions(q.Revenue.Ptr()),
			formatPercent(q.Margin.Ptr()),
			formatBillions(q.TTMRevenue.Ptr()),
			formatPercent(q.YoYGrowth.Ptr()),
		))
	}

	return sb.String()
}

func formatBillions(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2fB", *v/1e9)
}

func formatPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}
