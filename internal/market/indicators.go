package market

import "math"

// DefaultRSIWindow is the conventional RSI lookback.
const DefaultRSIWindow = 14

// EMA spans for MACD.
const (
	macdFastSpan   = 12
	macdSlowSpan   = 26
	macdSignalSpan = 9
)

// RSI computes the Relative Strength Index over the price series with
// the given window. Entries before the first full window are NaN. A
// window with gains and no losses yields 100; a window with no moves
// at all has undefined relative strength and stays NaN.
func RSI(prices []float64, window int) []float64 {
	if window <= 0 {
		window = DefaultRSIWindow
	}

	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	// First delta needs two prices, first full window needs `window`
	// deltas, so the series starts at index `window`.
	if len(prices) <= window {
		return out
	}

	for i := window; i < len(prices); i++ {
		var gain, loss float64
		for j := i - window + 1; j <= i; j++ {
			delta := prices[j] - prices[j-1]
			if delta > 0 {
				gain += delta
			} else {
				loss -= delta
			}
		}
		gain /= float64(window)
		loss /= float64(window)

		if loss == 0 {
			// 0/0 relative strength is undefined, not max.
			if gain == 0 {
				continue
			}
			out[i] = 100
			continue
		}
		rs := gain / loss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// EMA computes an exponential moving average with smoothing
// alpha = 2/(span+1), seeded with the first value.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD computes the Moving Average Convergence Divergence line
// (EMA12 - EMA26) and its 9-period signal line.
func MACD(prices []float64) (macd, signal []float64) {
	fast := EMA(prices, macdFastSpan)
	slow := EMA(prices, macdSlowSpan)

	macd = make([]float64, len(prices))
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}

	signal = EMA(macd, macdSignalSpan)
	return macd, signal
}
