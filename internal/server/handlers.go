package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bobmcallan/stockview/internal/charts"
	"github.com/bobmcallan/stockview/internal/models"
)

// stockDataRequest is the body of POST /api/stock-data.
type stockDataRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Force  bool   `json:"force"`
}

// handleStockData handles POST /api/stock-data. Only presence is checked
// here; symbol format is judged by the service.
func (s *Server) handleStockData(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req stockDataRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Symbol is required")
		return
	}

	s.writeDashboard(w, r, req.Symbol, req.Force)
}

// handleStock handles GET /api/stocks/{symbol}?force=true.
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	s.writeDashboard(w, r, symbol, force)
}

func (s *Server) writeDashboard(w http.ResponseWriter, r *http.Request, symbol string, force bool) {
	dash, err := s.app.DashboardService.GetDashboard(r.Context(), symbol, force)
	if err != nil {
		s.writeLookupError(w, symbol, err)
		return
	}
	WriteJSON(w, http.StatusOK, dash)
}

// handleStockChart handles GET /api/stocks/{symbol}/chart/{kind}.
func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request, symbol, kind string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	switch kind {
	case charts.KindPrice, charts.KindRevenue, charts.KindMargin:
	default:
		WriteError(w, http.StatusBadRequest, "Chart must be one of price, revenue, margin")
		return
	}

	dash, err := s.app.DashboardService.GetDashboard(r.Context(), symbol, false)
	if err != nil {
		s.writeLookupError(w, symbol, err)
		return
	}

	png, err := charts.Render(kind, dash)
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", dash.Symbol).Str("chart", kind).Msg("Chart not rendered")
		WriteError(w, http.StatusUnprocessableEntity, "Not enough data to draw the "+kind+" chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleStockCache handles DELETE /api/stocks/{symbol}/cache.
func (s *Server) handleStockCache(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}
	n, err := s.app.DashboardService.InvalidateSymbol(r.Context(), symbol)
	if err != nil {
		s.writeLookupError(w, symbol, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"symbol":  models.NormalizeSymbol(symbol),
		"deleted": n,
	})
}

// writeLookupError maps a service error to a status and a user-facing
// message. Internal details only go to the log.
func (s *Server) writeLookupError(w http.ResponseWriter, symbol string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidSymbol):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}

	event := s.logger.Warn()
	if status == http.StatusInternalServerError {
		event = s.logger.Error()
	}
	event.Err(err).Str("symbol", symbol).Int("status", status).Msg("Stock lookup failed")

	WriteErrorWithGuidance(w, status, models.UserMessage(err), models.UserGuidance)
}
