package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/briefly/briefly/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for resolved identities.
	identityCachePrefix = "auth:identity:"
	// identityCacheTTL is the time-to-live for cached identities.
	identityCacheTTL = 5 * time.Minute
)

// cachedIdentity is the identity payload stored in Redis. It carries
// identity only - quota counters are never cached, the gate always
// reads them inside its critical section.
type cachedIdentity struct {
	UserID    string `json:"user_id"`
	KeyPrefix string `json:"key_prefix"`
	Plan      string `json:"plan"`
}

// GetIdentity retrieves a cached identity by cache key.
// Returns nil on a cache miss or a corrupted entry.
func (c *Cache) GetIdentity(ctx context.Context, cacheKey string) (*model.Identity, error) {
	key := identityCachePrefix + cacheKey

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	plan, err := model.ParsePlan(cached.Plan)
	if err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.Identity{
		UserID:    cached.UserID,
		KeyPrefix: cached.KeyPrefix,
		Plan:      plan,
	}, nil
}

// SetIdentity caches a resolved identity.
func (c *Cache) SetIdentity(ctx context.Context, cacheKey string, id *model.Identity) error {
	key := identityCachePrefix + cacheKey

	data, err := json.Marshal(cachedIdentity{
		UserID:    id.UserID,
		KeyPrefix: id.KeyPrefix,
		Plan:      string(id.Plan),
	})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, key, data, identityCacheTTL).Err()
}

// DeleteIdentity removes a cached identity. Used when a key is rotated
// or a user is deprovisioned.
func (c *Cache) DeleteIdentity(ctx context.Context, cacheKey string) error {
	key := identityCachePrefix + cacheKey
	return c.client.Del(ctx, key).Err()
}
