package dto

import (
	"math"
	"time"

	"github.com/briefly/briefly/internal/market"
	"github.com/briefly/briefly/internal/service"
)

// PricePointResponse is one daily close in API responses.
type PricePointResponse struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// HistoryResponse represents a coin's price history.
type HistoryResponse struct {
	Coin   string               `json:"coin"`
	Days   int                  `json:"days"`
	Prices []PricePointResponse `json:"prices"`
}

// IndicatorsResponse represents a coin's technical indicators,
// index-aligned with Prices. Undefined values (the RSI warmup window)
// serialize as null.
type IndicatorsResponse struct {
	Coin   string               `json:"coin"`
	Days   int                  `json:"days"`
	Prices []PricePointResponse `json:"prices"`
	RSI    []*float64           `json:"rsi"`
	MACD   []*float64           `json:"macd"`
	Signal []*float64           `json:"signal"`
}

// ForecastResponse represents projected prices.
type ForecastResponse struct {
	Coin     string               `json:"coin"`
	Horizon  int                  `json:"horizon_days"`
	Forecast []PricePointResponse `json:"forecast"`
}

// SuggestionResponse is one ranked growth suggestion.
type SuggestionResponse struct {
	Coin      string  `json:"coin"`
	GrowthPct float64 `json:"growth_pct"`
}

// SuggestionsResponse represents the top growth suggestions.
type SuggestionsResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// ToPricePoints converts price points to response DTOs.
func ToPricePoints(points []market.PricePoint) []PricePointResponse {
	out := make([]PricePointResponse, len(points))
	for i, p := range points {
		out[i] = PricePointResponse{Date: p.Date, Price: p.Price}
	}
	return out
}

// ToNullableSeries converts an indicator series to pointers, mapping
// NaN to nil so JSON encoding produces null instead of failing.
func ToNullableSeries(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

// ToSuggestions converts ranked suggestions to response DTOs.
func ToSuggestions(suggestions []service.Suggestion) SuggestionsResponse {
	out := SuggestionsResponse{
		Suggestions: make([]SuggestionResponse, len(suggestions)),
	}
	for i, s := range suggestions {
		out.Suggestions[i] = SuggestionResponse{Coin: s.Coin, GrowthPct: s.GrowthPct}
	}
	return out
}
