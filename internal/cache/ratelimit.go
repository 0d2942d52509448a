package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// rateLimitIPPrefix is the Redis key prefix for IP rate limits.
	rateLimitIPPrefix = "ratelimit:ip:"
	// rateLimitIPTTL is the TTL for IP rate limit keys.
	rateLimitIPTTL = 10 * time.Second
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript is a Lua script implementing the token bucket
// algorithm. It's atomic and handles token refill and consumption in a
// single operation.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])      -- tokens per second
	local burst = tonumber(ARGV[2])     -- max tokens (bucket capacity)
	local now = tonumber(ARGV[3])       -- current time in seconds
	local ttl = tonumber(ARGV[4])       -- TTL in seconds

	-- Get current state
	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	-- Refill tokens based on elapsed time
	local elapsed = now - last_update
	tokens = math.min(burst, tokens + (elapsed * rate))

	-- Check if request is allowed
	local allowed = 0
	local retry_after = 0

	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		-- Calculate when 1 token will be available
		retry_after = math.ceil((1 - tokens) / rate)
	end

	-- Update state
	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// CheckIPRateLimit checks and updates the per-IP token bucket for the
// public market endpoints. The IP is hashed to avoid storing raw
// addresses.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	key := rateLimitIPPrefix + hashIP(ip)
	now := time.Now().Unix()

	result, err := tokenBucketScript.Run(ctx, c.client,
		[]string{key},
		float64(ratePerSecond), burst, now, int(rateLimitIPTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		// Fail open on Redis errors - allow the request
		return &RateLimitResult{
			Allowed:   true,
			Remaining: int64(burst),
			ResetAt:   time.Now().Add(time.Second),
		}, nil
	}

	return &RateLimitResult{
		Allowed:    result[0] == 1,
		RetryAfter: time.Duration(result[1]) * time.Second,
		Remaining:  result[2],
		ResetAt:    time.Now().Add(time.Second),
	}, nil
}

// hashIP creates a truncated SHA256 hash of an IP address.
// This provides privacy while maintaining uniqueness.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 16 hex chars
}
