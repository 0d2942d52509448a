// Package market fetches cryptocurrency price history and derives
// indicators and forecasts from it.
package market

import "time"

// PricePoint is one daily close in USD.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// Series extracts the raw price values from a history.
func Series(points []PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}

// Growth returns the percentage change between the first and last
// points of a history. Returns 0 for histories shorter than two points
// or a zero starting price.
func Growth(points []PricePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	start := points[0].Price
	end := points[len(points)-1].Price
	if start == 0 {
		return 0
	}
	return (end - start) / start * 100
}
