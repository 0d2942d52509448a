package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client errors.
var (
	ErrInvalidCoin = errors.New("invalid coin identifier")
	ErrUnknownCoin = errors.New("unknown coin")
	ErrUpstream    = errors.New("price API error")
)

// Coin identifiers are lowercase API slugs (e.g. "bitcoin").
var coinRegex = regexp.MustCompile(`^[a-z0-9-]{1,64}$`)

const (
	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 15 * time.Second
)

// Client fetches daily price history from a CoinGecko-compatible API.
// Outbound calls are throttled client-side so a burst of dashboard
// traffic cannot trip the upstream's own rate limits.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// NewClient creates a price API client. rps bounds outbound requests
// per second; a non-positive value disables the throttle.
func NewClient(baseURL string, timeout time.Duration, rps float64) *Client {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   tlsHandshakeTimeout,
				ResponseHeaderTimeout: responseHeaderTimeout,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		limiter: limiter,
	}
}

// marketChartResponse mirrors the upstream market_chart payload:
// prices is a list of [timestamp_ms, price] pairs.
type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// PriceHistory fetches `days` of daily USD prices for a coin.
func (c *Client) PriceHistory(ctx context.Context, coin string, days int) ([]PricePoint, error) {
	if !coinRegex.MatchString(coin) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCoin, coin)
	}
	if days <= 0 {
		days = 30
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("throttle wait: %w", err)
		}
	}

	endpoint := fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, url.PathEscape(coin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	q := req.URL.Query()
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))
	q.Set("interval", "daily")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCoin, coin)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var payload marketChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	if len(payload.Prices) == 0 {
		return nil, fmt.Errorf("%w: empty price history for %q", ErrUpstream, coin)
	}

	points := make([]PricePoint, len(payload.Prices))
	for i, p := range payload.Prices {
		points[i] = PricePoint{
			Date:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		}
	}
	return points, nil
}
