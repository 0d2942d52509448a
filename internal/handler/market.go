package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/briefly/briefly/internal/handler/dto"
	"github.com/briefly/briefly/internal/market"
	"github.com/briefly/briefly/internal/service"
)

// History query bounds.
const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
	maxForecastDays    = 30
)

// MarketHandler handles HTTP requests for market insights.
type MarketHandler struct {
	svc    *service.MarketService
	logger *slog.Logger
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(svc *service.MarketService, logger *slog.Logger) *MarketHandler {
	return &MarketHandler{
		svc:    svc,
		logger: logger,
	}
}

// History handles GET /api/v1/coins/{coin}/history.
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	coin := chi.URLParam(r, "coin")
	days := queryInt(r, "days", defaultHistoryDays, maxHistoryDays)

	points, err := h.svc.History(r.Context(), coin, days)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryResponse{
		Coin:   coin,
		Days:   days,
		Prices: dto.ToPricePoints(points),
	})
}

// Indicators handles GET /api/v1/coins/{coin}/indicators.
func (h *MarketHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	coin := chi.URLParam(r, "coin")
	days := queryInt(r, "days", defaultHistoryDays, maxHistoryDays)

	ind, err := h.svc.Indicators(r.Context(), coin, days)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.IndicatorsResponse{
		Coin:   coin,
		Days:   days,
		Prices: dto.ToPricePoints(ind.History),
		RSI:    dto.ToNullableSeries(ind.RSI),
		MACD:   dto.ToNullableSeries(ind.MACD),
		Signal: dto.ToNullableSeries(ind.Signal),
	})
}

// Forecast handles GET /api/v1/coins/{coin}/forecast.
func (h *MarketHandler) Forecast(w http.ResponseWriter, r *http.Request) {
	coin := chi.URLParam(r, "coin")
	days := queryInt(r, "days", defaultHistoryDays, maxHistoryDays)
	horizon := queryInt(r, "horizon", market.DefaultForecastDays, maxForecastDays)

	points, err := h.svc.Forecast(r.Context(), coin, days, horizon)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ForecastResponse{
		Coin:     coin,
		Horizon:  horizon,
		Forecast: dto.ToPricePoints(points),
	})
}

// Suggestions handles GET /api/v1/suggestions.
func (h *MarketHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.svc.Suggestions(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSuggestions(suggestions))
}

// queryInt parses a bounded positive integer query parameter.
func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 || parsed > max {
		return def
	}
	return parsed
}

func (h *MarketHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrInvalidCoin):
		h.writeError(w, http.StatusBadRequest, "INVALID_COIN", "Coin identifier must be a lowercase API slug")
	case errors.Is(err, market.ErrUnknownCoin):
		h.writeError(w, http.StatusNotFound, "UNKNOWN_COIN", "Coin not found")
	case errors.Is(err, market.ErrNotEnoughData):
		h.writeError(w, http.StatusUnprocessableEntity, "NOT_ENOUGH_DATA", "Not enough price history to forecast")
	case errors.Is(err, market.ErrUpstream):
		h.writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Price API is unavailable")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *MarketHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
