package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/models"
)

type stubDashboardService struct {
	dash   *models.Dashboard
	err    error
	source string

	mu        sync.Mutex
	lastForce bool
	warmed    [][]string
}

func (s *stubDashboardService) GetDashboard(_ context.Context, symbol string, force bool) (*models.Dashboard, error) {
	s.mu.Lock()
	s.lastForce = force
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.dash, nil
}

func (s *stubDashboardService) WarmSymbols(_ context.Context, symbols []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warmed = append(s.warmed, symbols)
	return len(symbols)
}

func (s *stubDashboardService) InvalidateSymbol(context.Context, string) (int, error) { return 0, nil }

func (s *stubDashboardService) SourceName() string { return s.source }

func (s *stubDashboardService) warmCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.warmed)
}

func sampleDashboard() *models.Dashboard {
	d := models.NewCalendarDate
	return &models.Dashboard{
		Symbol: "AAPL",
		Source: "fmp",
		Merged: []models.MergedRecord{
			{Date: d(2024, 3, 28), Price: 171.48},
		},
		Quarterly: []models.DerivedRecord{
			{
				MergedRecord: models.MergedRecord{Date: d(2023, 12, 30), Revenue: null.FloatFrom(119.58e9), Margin: null.FloatFrom(45.87)},
				TTMRevenue:   null.FloatFrom(385.71e9),
			},
			{
				MergedRecord: models.MergedRecord{Date: d(2024, 3, 30), Revenue: null.FloatFrom(90.75e9), Margin: null.FloatFrom(46.58)},
				TTMRevenue:   null.FloatFrom(381.62e9),
				YoYGrowth:    null.FloatFrom(-4.31),
			},
		},
		Domain:   &models.DateDomain{Start: d(2023, 12, 30), End: d(2024, 3, 30)},
		Warnings: []string{"fundamentals unavailable"},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty tool result")
	}
	return result.Content[0].(mcp.TextContent).Text
}

func TestHandleGetVersion(t *testing.T) {
	handler := handleGetVersion(&stubDashboardService{source: "tiingo"})

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Source: tiingo") {
		t.Errorf("Expected source in version output, got %q", text)
	}
	if !strings.Contains(text, "Version: "+common.GetVersion()) {
		t.Errorf("Expected version in output, got %q", text)
	}
}

func TestHandleGetStockDashboard_Success(t *testing.T) {
	svc := &stubDashboardService{dash: sampleDashboard()}
	handler := handleGetStockDashboard(svc, common.NewSilentLogger())

	request := mcp.CallToolRequest{}
	request.Params.Arguments = map[string]interface{}{
		"symbol": "aapl",
		"force":  true,
	}

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected success, got error: %v", result.Content)
	}
	if !svc.lastForce {
		t.Error("force flag not passed through")
	}

	text := resultText(t, result)
	for _, want := range []string{
		"# AAPL",
		"$171.48 on 2024-03-28",
		"2023-12-30 to 2024-03-30",
		"| 2024-03-30 | $90.75B | 46.6% | $381.62B | -4.3% |",
		"| 2023-12-30 | $119.58B | 45.9% | $385.71B | - |",
		"Warning: fundamentals unavailable",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Result missing %q\n%s", want, text)
		}
	}
	// newest quarter first
	if strings.Index(text, "2024-03-30 |") > strings.Index(text, "2023-12-30 |") {
		t.Error("Expected newest quarter first")
	}
}

func TestHandleGetStockDashboard_MissingSymbol(t *testing.T) {
	handler := handleGetStockDashboard(&stubDashboardService{}, common.NewSilentLogger())

	result, err := handler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("Expected error result for missing symbol")
	}
}

func TestHandleGetStockDashboard_ServiceError(t *testing.T) {
	svc := &stubDashboardService{
		err: models.NewSymbolError("ZZZZ", models.ErrInvalidSymbol, nil),
	}
	handler := handleGetStockDashboard(svc, common.NewSilentLogger())

	request := mcp.CallToolRequest{}
	request.Params.Arguments = map[string]interface{}{"symbol": "ZZZZ"}

	result, err := handler(context.Background(), request)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("Expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "No market data found for ZZZZ") || !strings.Contains(text, models.UserGuidance) {
		t.Errorf("Unexpected error text %q", text)
	}
}

func TestFormatDashboard_NoFundamentals(t *testing.T) {
	dash := sampleDashboard()
	dash.Quarterly = nil
	dash.FromCache = true

	text := formatDashboard(dash)
	if !strings.Contains(text, "No quarterly fundamentals available") {
		t.Errorf("Expected empty fundamentals notice, got %q", text)
	}
	if !strings.Contains(text, "(cached)") {
		t.Error("Expected cached marker")
	}
}
