package interfaces

import (
	"context"

	"github.com/bobmcallan/stockview/internal/models"
)

// DashboardService assembles the merged, derived view for a symbol
type DashboardService interface {
	// GetDashboard returns cached data when fresh unless force is set
	GetDashboard(ctx context.Context, symbol string, force bool) (*models.Dashboard, error)

	// WarmSymbols refreshes the cache for each symbol, logging failures
	WarmSymbols(ctx context.Context, symbols []string) int

	// InvalidateSymbol drops every cached row for symbol
	InvalidateSymbol(ctx context.Context, symbol string) (int, error)

	// SourceName returns the active vendor name
	SourceName() string
}
