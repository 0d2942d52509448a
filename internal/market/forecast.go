package market

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughData indicates a history too short to fit a trend line.
var ErrNotEnoughData = errors.New("not enough data points to forecast")

// DefaultForecastDays is how far ahead the forecast projects.
const DefaultForecastDays = 7

// Forecast fits an ordinary-least-squares line to the price history
// (price against day index) and projects it `days` ahead, one point
// per day after the last known date.
func Forecast(points []PricePoint, days int) ([]PricePoint, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("%w: have %d", ErrNotEnoughData, len(points))
	}
	if days <= 0 {
		days = DefaultForecastDays
	}

	xs := make([]float64, len(points))
	for i := range xs {
		xs[i] = float64(i)
	}
	ys := Series(points)

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	lastDate := points[len(points)-1].Date
	out := make([]PricePoint, days)
	for i := 0; i < days; i++ {
		x := float64(len(points) + i)
		out[i] = PricePoint{
			Date:  lastDate.Add(time.Duration(i+1) * 24 * time.Hour),
			Price: alpha + beta*x,
		}
	}
	return out, nil
}
