package app

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createGetVersionTool returns the get_version tool definition
func createGetVersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the stockview server version and active data source. Use this to verify connectivity."),
	)
}

// createGetStockDashboardTool returns the get_stock_dashboard tool definition
func createGetStockDashboardTool() mcp.Tool {
	return mcp.NewTool("get_stock_dashboard",
		mcp.WithDescription("Get daily prices joined with quarterly revenue and gross margin for a symbol, plus trailing twelve month revenue and year-over-year growth."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol (e.g., 'AAPL', 'MSFT')"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Bypass the cache and fetch from the vendor (default: false)"),
		),
	)
}
