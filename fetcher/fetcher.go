// ABOUTME: This file defines the Fetcher contract and the shared rate-limited
// ABOUTME: HTTP client every source fetcher goes through.
package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pharma-radar/config"
	"pharma-radar/domain"
)

// Fetcher pulls raw monitoring items from one external source.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]domain.RawItem, error)
}

// HostRateLimiter serializes outbound requests per host so a multi-feed
// cycle does not hammer a single provider.
type HostRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	interval time.Duration
}

func NewHostRateLimiter(interval time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

func (h *HostRateLimiter) WaitForHost(ctx context.Context, host string) error {
	if host == "" {
		return fmt.Errorf("missing host for rate limit wait")
	}

	limiter := h.getLimiterForHost(host)

	return limiter.Wait(ctx)
}

func (h *HostRateLimiter) getLimiterForHost(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, exists := h.limiters[host]
	h.mu.RUnlock()

	if exists {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check pattern
	if limiter, exists := h.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(h.interval), 1)
	h.limiters[host] = limiter
	return limiter
}

// Several feed and press-page hosts answer 403 to non-browser clients, so
// those requests go out with browser-like headers. API requests identify
// the application via the configured User-Agent.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	feedAccept       = "application/rss+xml, application/xml, application/atom+xml, text/xml, */*"
	pageAccept       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	apiAccept        = "application/json, application/xml, */*"
)

// HTTPClient is the outbound client shared by all fetchers. It applies a
// per-host rate limit and a redirect cap.
type HTTPClient struct {
	client    *http.Client
	limiter   *HostRateLimiter
	userAgent string
}

func NewHTTPClient(cfg config.HTTPConfig) *HTTPClient {
	maxRedirects := cfg.MaxRedirects

	return &HTTPClient{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter:   NewHostRateLimiter(cfg.RateLimitInterval),
		userAgent: cfg.UserAgent,
	}
}

// Get performs a rate-limited GET against a JSON or XML API endpoint.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, url, c.userAgent, apiAccept)
}

// GetFeed performs a rate-limited GET against a syndication feed.
func (c *HTTPClient) GetFeed(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, url, browserUserAgent, feedAccept)
}

// GetPage performs a rate-limited GET against an HTML listing page.
func (c *HTTPClient) GetPage(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, url, browserUserAgent, pageAccept)
}

func (c *HTTPClient) do(ctx context.Context, url, userAgent, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if err := c.limiter.WaitForHost(ctx, req.URL.Host); err != nil {
		return nil, fmt.Errorf("rate limit wait for %s: %w", req.URL.Host, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return resp, nil
}

// Truncate collapses whitespace runs and caps the text at max characters.
// The cap counts runes, not bytes, so multi-byte titles are not split.
func Truncate(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if max <= 0 {
		return collapsed
	}

	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max])
}

// stringPtr is a small helper for optional external identifiers.
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// withinLookback reports whether ts falls inside the window ending now.
// A zero timestamp is treated as unknown and kept.
func withinLookback(ts time.Time, lookback time.Duration, now time.Time) bool {
	if ts.IsZero() {
		return true
	}
	return now.Sub(ts) <= lookback
}
