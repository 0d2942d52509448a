package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/briefly/briefly/internal/market"
)

// marketHistoryPrefix is the Redis key prefix for cached price history.
const marketHistoryPrefix = "market:history:"

func marketHistoryKey(coin string, days int) string {
	return fmt.Sprintf("%s%s:%d", marketHistoryPrefix, coin, days)
}

// GetPriceHistory retrieves a cached price history for a coin.
// Returns nil on a cache miss or a corrupted entry.
func (c *Cache) GetPriceHistory(ctx context.Context, coin string, days int) ([]market.PricePoint, error) {
	data, err := c.client.Get(ctx, marketHistoryKey(coin, days)).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var points []market.PricePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, nil //nolint:nilerr
	}
	return points, nil
}

// SetPriceHistory caches a price history with the given TTL.
func (c *Cache) SetPriceHistory(ctx context.Context, coin string, days int, points []market.PricePoint, ttl time.Duration) error {
	data, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("marshal price history: %w", err)
	}
	return c.client.Set(ctx, marketHistoryKey(coin, days), data, ttl).Err()
}
