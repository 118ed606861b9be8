package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockview/internal/app"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/models"
)

type mockDashboardService struct {
	getFn func(ctx context.Context, symbol string, force bool) (*models.Dashboard, error)

	mu          sync.Mutex
	lastSymbol  string
	lastForce   bool
	invalidated []string
}

func (m *mockDashboardService) GetDashboard(ctx context.Context, symbol string, force bool) (*models.Dashboard, error) {
	m.mu.Lock()
	m.lastSymbol, m.lastForce = symbol, force
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(ctx, symbol, force)
	}
	return testDashboard(models.NormalizeSymbol(symbol)), nil
}

func (m *mockDashboardService) WarmSymbols(context.Context, []string) int { return 0 }

func (m *mockDashboardService) InvalidateSymbol(_ context.Context, symbol string) (int, error) {
	symbol = models.NormalizeSymbol(symbol)
	if !models.ValidSymbol(symbol) {
		return 0, models.NewSymbolError(symbol, models.ErrInvalidSymbol, nil)
	}
	m.mu.Lock()
	m.invalidated = append(m.invalidated, symbol)
	m.mu.Unlock()
	return 7, nil
}

func (m *mockDashboardService) SourceName() string { return "fmp" }

func testDashboard(symbol string) *models.Dashboard {
	d := models.NewCalendarDate
	q := func(date models.CalendarDate, rev, margin float64) models.DerivedRecord {
		return models.DerivedRecord{MergedRecord: models.MergedRecord{
			Date: date, Revenue: null.FloatFrom(rev), Margin: null.FloatFrom(margin),
		}}
	}
	return &models.Dashboard{
		Symbol: symbol,
		Source: "fmp",
		Merged: []models.MergedRecord{
			{Date: d(2024, 3, 28), Price: 171},
			{Date: d(2024, 3, 29), Price: 172, Revenue: null.FloatFrom(90e9), Margin: null.FloatFrom(46)},
			{Date: d(2024, 6, 28), Price: 210},
		},
		Quarterly: []models.DerivedRecord{
			q(d(2023, 12, 29), 119e9, 45),
			q(d(2024, 3, 29), 90e9, 46),
		},
		Domain: &models.DateDomain{Start: d(2023, 12, 29), End: d(2024, 6, 28)},
	}
}

func newTestServer(svc *mockDashboardService) *Server {
	a := &app.App{
		Config:           common.NewDefaultConfig(),
		Logger:           common.NewSilentLogger(),
		DashboardService: svc,
	}
	return NewServer(a)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(&mockDashboardService{})

	rr := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(t, s, http.MethodPost, "/api/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestVersion(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, common.GetVersion(), body["version"])
	assert.Equal(t, "fmp", body["source"])
}

func TestStockData_Success(t *testing.T) {
	svc := &mockDashboardService{}
	rr := do(t, newTestServer(svc), http.MethodPost, "/api/stock-data", `{"symbol":"aapl"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "aapl", svc.lastSymbol)
	assert.False(t, svc.lastForce)

	var dash struct {
		Symbol string `json:"symbol"`
		Merged []struct {
			Date    string   `json:"date"`
			Price   float64  `json:"price"`
			Revenue *float64 `json:"revenue"`
		} `json:"merged"`
		Domain struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"domain"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&dash))
	assert.Equal(t, "AAPL", dash.Symbol)
	require.Len(t, dash.Merged, 3)
	assert.Equal(t, "2024-03-28", dash.Merged[0].Date)
	assert.Nil(t, dash.Merged[0].Revenue, "missing revenue serializes as null")
	require.NotNil(t, dash.Merged[1].Revenue)
	assert.Equal(t, 90e9, *dash.Merged[1].Revenue)
	assert.Equal(t, "2023-12-29", dash.Domain.Start)
}

func TestStockData_ForceFlag(t *testing.T) {
	svc := &mockDashboardService{}
	rr := do(t, newTestServer(svc), http.MethodPost, "/api/stock-data", `{"symbol":"MSFT","force":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, svc.lastForce)
}

func TestStockData_MissingSymbol(t *testing.T) {
	s := newTestServer(&mockDashboardService{})

	for _, body := range []string{`{}`, `{"symbol":""}`} {
		rr := do(t, s, http.MethodPost, "/api/stock-data", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "Symbol is required", decodeError(t, rr).Error)
	}
}

func TestStockData_OverlongSymbolIsInvalidSymbol(t *testing.T) {
	svc := &mockDashboardService{
		getFn: func(_ context.Context, symbol string, _ bool) (*models.Dashboard, error) {
			symbol = models.NormalizeSymbol(symbol)
			if !models.ValidSymbol(symbol) {
				return nil, models.NewSymbolError(symbol, models.ErrInvalidSymbol, errors.New("malformed symbol"))
			}
			return testDashboard(symbol), nil
		},
	}
	long := strings.Repeat("A", 25)

	rr := do(t, newTestServer(svc), http.MethodPost, "/api/stock-data", `{"symbol":"`+long+`"}`)

	assert.Equal(t, long, svc.lastSymbol)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, "No market data found for "+long, resp.Error)
	assert.Equal(t, models.UserGuidance, resp.Guidance)
}

func TestStockData_InvalidJSON(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodPost, "/api/stock-data", `{"symbol":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStockData_MethodNotAllowed(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodGet, "/api/stock-data", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
}

func TestStockData_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid symbol", models.NewSymbolError("ZZZZ", models.ErrInvalidSymbol, nil), http.StatusNotFound, "No market data found for ZZZZ"},
		{"upstream", models.NewSymbolError("ZZZZ", models.ErrUpstreamUnavailable, errors.New("dial tcp: refused")), http.StatusBadGateway, "Market data is temporarily unavailable for ZZZZ"},
		{"not configured", models.NewSymbolError("ZZZZ", models.ErrSourceNotConfigured, nil), http.StatusInternalServerError, "API configuration error"},
		{"unexpected", errors.New("secret internal detail"), http.StatusInternalServerError, "Failed to load market data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDashboardService{getFn: func(context.Context, string, bool) (*models.Dashboard, error) {
				return nil, tt.err
			}}
			rr := do(t, newTestServer(svc), http.MethodPost, "/api/stock-data", `{"symbol":"ZZZZ"}`)

			assert.Equal(t, tt.status, rr.Code)
			assert.NotContains(t, rr.Body.String(), "dial tcp")
			assert.NotContains(t, rr.Body.String(), "secret")
			resp := decodeError(t, rr)
			assert.Equal(t, tt.message, resp.Error)
			assert.Equal(t, models.UserGuidance, resp.Guidance)
		})
	}
}

func TestGetStock_QueryForce(t *testing.T) {
	svc := &mockDashboardService{}
	s := newTestServer(svc)

	rr := do(t, s, http.MethodGet, "/api/stocks/NVDA?force=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "NVDA", svc.lastSymbol)
	assert.True(t, svc.lastForce)

	rr = do(t, s, http.MethodGet, "/api/stocks/NVDA", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, svc.lastForce)
}

func TestGetStock_EmptySymbol(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodGet, "/api/stocks/", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStockChart(t *testing.T) {
	s := newTestServer(&mockDashboardService{})

	for _, kind := range []string{"price", "revenue", "margin"} {
		rr := do(t, s, http.MethodGet, "/api/stocks/AAPL/chart/"+kind, "")
		require.Equal(t, http.StatusOK, rr.Code, kind)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")), kind)
	}
}

func TestStockChart_UnknownKind(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodGet, "/api/stocks/AAPL/chart/volume", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStockChart_NotEnoughData(t *testing.T) {
	svc := &mockDashboardService{getFn: func(_ context.Context, symbol string, _ bool) (*models.Dashboard, error) {
		dash := testDashboard(symbol)
		dash.Quarterly = nil
		return dash, nil
	}}
	rr := do(t, newTestServer(svc), http.MethodGet, "/api/stocks/AAPL/chart/revenue", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestStockCache_Delete(t *testing.T) {
	svc := &mockDashboardService{}
	s := newTestServer(svc)

	rr := do(t, s, http.MethodDelete, "/api/stocks/aapl/cache", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"symbol":"AAPL","deleted":7}`, rr.Body.String())
	assert.Equal(t, []string{"AAPL"}, svc.invalidated)

	rr = do(t, s, http.MethodGet, "/api/stocks/aapl/cache", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStocks_UnknownSubpath(t *testing.T) {
	rr := do(t, newTestServer(&mockDashboardService{}), http.MethodGet, "/api/stocks/AAPL/news", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMCPEndpoint_Registered(t *testing.T) {
	config := common.NewDefaultConfig()
	config.Storage.Backend = common.BackendNone
	config.Logging.Level = "error"
	a, err := app.NewAppWithConfig(context.Background(), config)
	require.NoError(t, err)
	defer a.Close()

	s := NewServer(a)
	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "get_stock_dashboard")
	assert.Contains(t, rr.Body.String(), "get_version")
}
