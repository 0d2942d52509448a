package market

import (
	"errors"
	"testing"
	"time"
)

func linearHistory(t *testing.T, n int, start, slope float64) []PricePoint {
	t.Helper()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	points := make([]PricePoint, n)
	for i := range points {
		points[i] = PricePoint{
			Date:  base.Add(time.Duration(i) * 24 * time.Hour),
			Price: start + slope*float64(i),
		}
	}
	return points
}

func TestForecast_PerfectLine(t *testing.T) {
	t.Parallel()

	// y = 100 + 2x fits exactly, so projections continue the line.
	points := linearHistory(t, 10, 100, 2)

	got, err := Forecast(points, 3)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	lastDate := points[len(points)-1].Date
	for i, p := range got {
		wantPrice := 100 + 2*float64(len(points)+i)
		if !almostEqual(p.Price, wantPrice, 1e-9) {
			t.Errorf("forecast[%d].Price = %v, want %v", i, p.Price, wantPrice)
		}
		wantDate := lastDate.Add(time.Duration(i+1) * 24 * time.Hour)
		if !p.Date.Equal(wantDate) {
			t.Errorf("forecast[%d].Date = %v, want %v", i, p.Date, wantDate)
		}
	}
}

func TestForecast_FlatLine(t *testing.T) {
	t.Parallel()

	points := linearHistory(t, 5, 42, 0)

	got, err := Forecast(points, 2)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	for i, p := range got {
		if !almostEqual(p.Price, 42, 1e-9) {
			t.Errorf("forecast[%d].Price = %v, want 42", i, p.Price)
		}
	}
}

func TestForecast_DefaultDays(t *testing.T) {
	t.Parallel()

	points := linearHistory(t, 10, 10, 1)

	got, err := Forecast(points, 0)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(got) != DefaultForecastDays {
		t.Errorf("len = %d, want %d", len(got), DefaultForecastDays)
	}
}

func TestForecast_NotEnoughData(t *testing.T) {
	t.Parallel()

	for _, points := range [][]PricePoint{nil, linearHistory(t, 1, 5, 0)} {
		_, err := Forecast(points, 7)
		if !errors.Is(err, ErrNotEnoughData) {
			t.Errorf("Forecast(%d points) err = %v, want ErrNotEnoughData", len(points), err)
		}
	}
}

func TestGrowth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		points []PricePoint
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []PricePoint{{Price: 10}}, 0},
		{"up 50 percent", []PricePoint{{Price: 100}, {Price: 150}}, 50},
		{"down 25 percent", []PricePoint{{Price: 100}, {Price: 80}, {Price: 75}}, -25},
		{"zero start", []PricePoint{{Price: 0}, {Price: 10}}, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Growth(tt.points); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("Growth() = %v, want %v", got, tt.want)
			}
		})
	}
}
