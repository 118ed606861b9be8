package server

import (
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/stockview/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Dashboard
	mux.HandleFunc("/api/stock-data", s.handleStockData)
	mux.HandleFunc("/api/stocks/", s.routeStocks)

	// MCP over Streamable HTTP
	if s.app.MCPServer != nil {
		mux.Handle("/mcp", server.NewStreamableHTTPServer(s.app.MCPServer,
			server.WithStateLess(true),
		))
	}
}

// routeStocks dispatches /api/stocks/{symbol}[/chart/{kind}|/cache].
func (s *Server) routeStocks(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/stocks/"), "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	parts := strings.Split(path, "/")
	symbol := PathParam(r, "/api/stocks/", "")

	switch {
	case len(parts) == 1:
		s.handleStock(w, r, symbol)
	case len(parts) == 3 && parts[1] == "chart":
		s.handleStockChart(w, r, symbol, parts[2])
	case len(parts) == 2 && parts[1] == "cache":
		s.handleStockCache(w, r, symbol)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type versionResponse struct {
	common.BuildInfo
	Source string `json:"source"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, versionResponse{
		BuildInfo: common.GetBuildInfo(),
		Source:    s.app.DashboardService.SourceName(),
	})
}
