package classifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharma-radar/config"
	"pharma-radar/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(url string) Client {
	return NewHTTPClient(config.ClassifierConfig{URL: url, Timeout: 5 * time.Second}, testLogger())
}

func TestHTTPClient_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "drug recall announced", req["text"])
		assert.Equal(t, "rss:Test", req["source"])

		json.NewEncoder(w).Encode(map[string]any{"label": "side effects", "confidence": 0.87})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Classify(context.Background(), "drug recall announced", "rss:Test")

	require.NoError(t, err)
	assert.Equal(t, "side effects", result.Label)
	assert.Equal(t, 0.87, result.Confidence)
}

func TestHTTPClient_Classify_CategoryKeyAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"category": "clinical trial", "confidence": 0.66})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).Classify(context.Background(), "text", "manual")

	require.NoError(t, err)
	assert.Equal(t, "clinical trial", result.Label)
}

func TestHTTPClient_Classify_UnsetEndpoint(t *testing.T) {
	_, err := newTestClient("").Classify(context.Background(), "text", "manual")

	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
}

func TestHTTPClient_Classify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Shut down immediately so the dial fails

	_, err := newTestClient(server.URL).Classify(context.Background(), "text", "manual")

	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
}

func TestHTTPClient_Classify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Classify(context.Background(), "text", "manual")

	assert.ErrorIs(t, err, domain.ErrClassifierUnavailable)
}

func TestHTTPClient_Classify_MalformedResponses(t *testing.T) {
	tests := map[string]string{
		"not json":               `not json at all`,
		"missing label":          `{"confidence": 0.5}`,
		"missing confidence":     `{"label": "brand"}`,
		"confidence above range": `{"label": "brand", "confidence": 1.5}`,
		"confidence below range": `{"label": "brand", "confidence": -0.1}`,
		"whitespace label":       `{"label": "   ", "confidence": 0.5}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Classify(context.Background(), "text", "manual")

			assert.ErrorIs(t, err, domain.ErrInvalidClassifierResponse)
		})
	}
}

func TestHTTPClient_Classify_BoundaryConfidence(t *testing.T) {
	for _, confidence := range []float64{0, 1} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"label": "brand", "confidence": confidence})
		}))

		result, err := newTestClient(server.URL).Classify(context.Background(), "text", "manual")
		server.Close()

		require.NoError(t, err)
		assert.Equal(t, confidence, result.Confidence)
	}
}
