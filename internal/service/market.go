package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/briefly/briefly/internal/market"
	"github.com/briefly/briefly/internal/metrics"
)

// DefaultHistoryDays is the history window for indicators and
// suggestions.
const DefaultHistoryDays = 30

// SuggestionCount is how many top growers a suggestion call returns.
const SuggestionCount = 3

// TrackedCoins is the fixed watchlist the suggestion endpoint ranks.
var TrackedCoins = []string{
	"bitcoin",
	"ethereum",
	"solana",
	"ripple",
	"cardano",
	"dogecoin",
	"avalanche-2",
	"tether",
}

// PriceFetcher fetches daily price history for a coin.
type PriceFetcher interface {
	PriceHistory(ctx context.Context, coin string, days int) ([]market.PricePoint, error)
}

// HistoryCache caches fetched price histories.
type HistoryCache interface {
	GetPriceHistory(ctx context.Context, coin string, days int) ([]market.PricePoint, error)
	SetPriceHistory(ctx context.Context, coin string, days int, points []market.PricePoint, ttl time.Duration) error
}

// MarketService serves price history, indicators, forecasts, and
// growth suggestions. Histories are cached so dashboard refreshes do
// not hammer the upstream API.
type MarketService struct {
	fetcher  PriceFetcher
	cache    HistoryCache
	cacheTTL time.Duration
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewMarketService creates a new MarketService. cache may be nil to
// disable caching.
func NewMarketService(fetcher PriceFetcher, cache HistoryCache, cacheTTL time.Duration, logger *slog.Logger, recorder metrics.Recorder) *MarketService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &MarketService{
		fetcher:  fetcher,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		metrics:  recorder,
	}
}

// History returns `days` of daily prices for a coin, from cache when
// fresh.
func (s *MarketService) History(ctx context.Context, coin string, days int) ([]market.PricePoint, error) {
	if s.cache != nil {
		cached, _ := s.cache.GetPriceHistory(ctx, coin, days)
		if cached != nil {
			s.metrics.IncMarketCacheHit()
			return cached, nil
		}
		s.metrics.IncMarketCacheMiss()
	}

	start := time.Now()
	points, err := s.fetcher.PriceHistory(ctx, coin, days)
	s.metrics.ObserveMarketFetchDuration(time.Since(start))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetPriceHistory(ctx, coin, days, points, s.cacheTTL); err != nil {
			s.logger.Warn("price history cache write failed",
				slog.String("coin", coin),
				slog.String("error", err.Error()),
			)
		}
	}
	return points, nil
}

// Indicators holds a coin's price history with its derived RSI and
// MACD series, index-aligned with History.
type Indicators struct {
	History []market.PricePoint
	RSI     []float64
	MACD    []float64
	Signal  []float64
}

// Indicators computes RSI and MACD over `days` of history.
func (s *MarketService) Indicators(ctx context.Context, coin string, days int) (*Indicators, error) {
	points, err := s.History(ctx, coin, days)
	if err != nil {
		return nil, err
	}

	prices := market.Series(points)
	macd, signal := market.MACD(prices)

	return &Indicators{
		History: points,
		RSI:     market.RSI(prices, market.DefaultRSIWindow),
		MACD:    macd,
		Signal:  signal,
	}, nil
}

// Forecast projects `horizon` days of prices from a trend line fitted
// to `days` of history.
func (s *MarketService) Forecast(ctx context.Context, coin string, days, horizon int) ([]market.PricePoint, error) {
	points, err := s.History(ctx, coin, days)
	if err != nil {
		return nil, err
	}
	return market.Forecast(points, horizon)
}

// Suggestion is one ranked entry in the growth suggestions.
type Suggestion struct {
	Coin      string
	GrowthPct float64
}

// Suggestions ranks the tracked watchlist by growth over the last
// week and returns the top entries. Coins whose history cannot be
// fetched are skipped rather than failing the whole call.
func (s *MarketService) Suggestions(ctx context.Context) ([]Suggestion, error) {
	suggestions := make([]Suggestion, 0, len(TrackedCoins))
	for _, coin := range TrackedCoins {
		points, err := s.History(ctx, coin, DefaultHistoryDays)
		if err != nil {
			s.logger.Warn("skipping coin in suggestions",
				slog.String("coin", coin),
				slog.String("error", err.Error()),
			)
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Coin:      coin,
			GrowthPct: market.Growth(points),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].GrowthPct > suggestions[j].GrowthPct
	})

	if len(suggestions) > SuggestionCount {
		suggestions = suggestions[:SuggestionCount]
	}
	return suggestions, nil
}
