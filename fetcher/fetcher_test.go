package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharma-radar/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHTTPClient() *HTTPClient {
	return NewHTTPClient(config.HTTPConfig{
		Timeout:           5 * time.Second,
		UserAgent:         "PharmaRadar/1.0 (Research Application)",
		RateLimitInterval: time.Millisecond,
		MaxRedirects:      5,
	})
}

func TestTruncate(t *testing.T) {
	tests := map[string]struct {
		input    string
		max      int
		expected string
	}{
		"under limit unchanged": {
			input:    "short text",
			max:      500,
			expected: "short text",
		},
		"collapses whitespace": {
			input:    "a  b\n\tc   d",
			max:      500,
			expected: "a b c d",
		},
		"caps at limit": {
			input:    "abcdefghij",
			max:      4,
			expected: "abcd",
		},
		"counts runes not bytes": {
			input:    "日本語のテキスト",
			max:      3,
			expected: "日本語",
		},
		"zero limit keeps everything": {
			input:    "no cap here",
			max:      0,
			expected: "no cap here",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Truncate(tc.input, tc.max))
		})
	}
}

func TestHTTPClient_RequestHeaders(t *testing.T) {
	var gotHeaders http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
	}))
	defer server.Close()

	client := newTestHTTPClient()
	ctx := context.Background()

	tests := map[string]struct {
		get            func() (*http.Response, error)
		expectedUA     string
		expectedAccept string
	}{
		"api requests identify the application": {
			get:            func() (*http.Response, error) { return client.Get(ctx, server.URL) },
			expectedUA:     "PharmaRadar/1.0 (Research Application)",
			expectedAccept: "application/json, application/xml, */*",
		},
		"feed requests look like a browser": {
			get:            func() (*http.Response, error) { return client.GetFeed(ctx, server.URL) },
			expectedUA:     browserUserAgent,
			expectedAccept: "application/rss+xml, application/xml, application/atom+xml, text/xml, */*",
		},
		"page requests look like a browser": {
			get:            func() (*http.Response, error) { return client.GetPage(ctx, server.URL) },
			expectedUA:     browserUserAgent,
			expectedAccept: "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			resp, err := tc.get()

			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.expectedUA, gotHeaders.Get("User-Agent"))
			assert.Equal(t, tc.expectedAccept, gotHeaders.Get("Accept"))
			assert.Equal(t, "en-US,en;q=0.9", gotHeaders.Get("Accept-Language"))
		})
	}
}

func TestHTTPClient_Get_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestHTTPClient().Get(context.Background(), server.URL)

	assert.ErrorContains(t, err, "unexpected status 403")
}

func TestHostRateLimiter_SpacesRequestsPerHost(t *testing.T) {
	limiter := NewHostRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, limiter.WaitForHost(ctx, "example.com"))

	start := time.Now()
	require.NoError(t, limiter.WaitForHost(ctx, "example.com"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	// A different host has its own budget and is not delayed.
	start = time.Now()
	require.NoError(t, limiter.WaitForHost(ctx, "other.com"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestHostRateLimiter_MissingHost(t *testing.T) {
	limiter := NewHostRateLimiter(time.Second)

	err := limiter.WaitForHost(context.Background(), "")

	assert.Error(t, err)
}

func TestWithinLookback(t *testing.T) {
	now := time.Now()

	assert.True(t, withinLookback(now.Add(-time.Hour), 24*time.Hour, now))
	assert.False(t, withinLookback(now.Add(-25*time.Hour), 24*time.Hour, now))
	assert.True(t, withinLookback(time.Time{}, 24*time.Hour, now))
}
