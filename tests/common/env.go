package common

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bobmcallan/stockview/internal/app"
	"github.com/bobmcallan/stockview/internal/common"
	"github.com/bobmcallan/stockview/internal/server"
)

// Env is a full stockview stack backed by a fake FMP vendor and a
// throwaway SQLite cache.
type Env struct {
	t      *testing.T
	App    *app.App
	Server *httptest.Server
	Vendor *FakeVendor
}

// NewEnv starts the fake vendor, the app, and an HTTP test server.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	vendor := NewFakeVendor()

	config := common.NewDefaultConfig()
	config.Logging.Level = "error"
	config.Clients.Source = common.SourceFMP
	config.Clients.FMP.APIKey = FakeAPIKey
	config.Clients.FMP.BaseURL = vendor.URL()
	config.Clients.FMP.RateLimit = 100
	config.Storage.Backend = common.BackendSQLite
	config.Storage.SQLite.Path = filepath.Join(t.TempDir(), "market_cache.db")

	a, err := app.NewAppWithConfig(context.Background(), config)
	if err != nil {
		vendor.Close()
		t.Fatalf("NewAppWithConfig failed: %v", err)
	}

	ts := httptest.NewServer(server.NewServer(a).Handler())

	return &Env{t: t, App: a, Server: ts, Vendor: vendor}
}

// Cleanup stops every component.
func (e *Env) Cleanup() {
	e.Server.Close()
	e.App.Close()
	e.Vendor.Close()
}

// HTTPGet issues a GET against the stack.
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	return http.Get(e.Server.URL + path)
}

// HTTPPost issues a JSON POST against the stack.
func (e *Env) HTTPPost(path string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return http.Post(e.Server.URL+path, "application/json", bytes.NewReader(data))
}

// HTTPDelete issues a DELETE against the stack.
func (e *Env) HTTPDelete(path string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodDelete, e.Server.URL+path, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultClient.Do(req)
}

// FakeAPIKey is the only key the fake vendor accepts.
const FakeAPIKey = "test-fmp-key"

// FakeVendor serves canned FMP responses for AAPL. Any other symbol gets
// an empty price history. Set FailPrices to make price calls return 503.
type FakeVendor struct {
	server     *httptest.Server
	FailPrices atomic.Bool
	priceCalls atomic.Int32
}

// NewFakeVendor starts the fake vendor.
func NewFakeVendor() *FakeVendor {
	v := &FakeVendor{}
	v.server = httptest.NewServer(http.HandlerFunc(v.serve))
	return v
}

// URL is the vendor base URL.
func (v *FakeVendor) URL() string { return v.server.URL }

// Close stops the vendor.
func (v *FakeVendor) Close() { v.server.Close() }

// PriceCalls returns how many price requests were served.
func (v *FakeVendor) PriceCalls() int { return int(v.priceCalls.Load()) }

func (v *FakeVendor) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("apikey") != FakeAPIKey {
		http.Error(w, `{"Error Message":"Invalid API KEY"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasPrefix(r.URL.Path, "/historical-price-full/"):
		v.priceCalls.Add(1)
		if v.FailPrices.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		symbol := strings.TrimPrefix(r.URL.Path, "/historical-price-full/")
		if symbol != "AAPL" {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(aaplPrices))
	case strings.HasPrefix(r.URL.Path, "/income-statement/"):
		if strings.TrimPrefix(r.URL.Path, "/income-statement/") != "AAPL" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(aaplIncome))
	default:
		http.NotFound(w, r)
	}
}

// Newest first, the way FMP returns them. 2023-12-29 lands on a
// fundamentals date.
const aaplPrices = `{
  "symbol": "AAPL",
  "historical": [
    {"date": "2024-01-02", "close": 185.64, "adjClose": 184.94},
    {"date": "2023-12-29", "close": 192.53, "adjClose": 191.80},
    {"date": "2023-12-28", "close": 193.58, "adjClose": 192.85},
    {"date": "2023-10-02", "close": 173.75, "adjClose": 172.90}
  ]
}`

const aaplIncome = `[
  {"date": "2023-12-29", "symbol": "AAPL", "fillingDate": "2024-02-02", "calendarYear": "2024", "period": "Q1", "revenue": 119575000000, "grossProfit": 54855000000, "grossProfitRatio": 0.4587},
  {"date": "2023-09-29", "symbol": "AAPL", "fillingDate": "2023-11-03", "calendarYear": "2023", "period": "Q4", "revenue": 89498000000, "grossProfit": 40427000000, "grossProfitRatio": 0.4517},
  {"date": "2023-07-01", "symbol": "AAPL", "fillingDate": "2023-08-04", "calendarYear": "2023", "period": "Q3", "revenue": 81797000000, "grossProfit": 36413000000, "grossProfitRatio": 0.4452},
  {"date": "2023-04-01", "symbol": "AAPL", "fillingDate": "2023-05-05", "calendarYear": "2023", "period": "Q2", "revenue": 94836000000, "grossProfit": 41976000000, "grossProfitRatio": 0.4426},
  {"date": "2022-12-31", "symbol": "AAPL", "fillingDate": "2023-02-03", "calendarYear": "2023", "period": "Q1", "revenue": 117154000000, "grossProfit": 50332000000, "grossProfitRatio": 0.4296}
]`
