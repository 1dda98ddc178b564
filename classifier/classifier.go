package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"pharma-radar/config"
	"pharma-radar/domain"
)

// Result is the validated outcome of one classification call.
type Result struct {
	Label      string
	Confidence float64
}

// Client classifies a piece of text via the external classifier service.
type Client interface {
	Classify(ctx context.Context, text, source string) (*Result, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates a classifier client against the configured
// endpoint. An empty URL is allowed at construction time; calls will fail
// with domain.ErrClassifierUnavailable.
func NewHTTPClient(cfg config.ClassifierConfig, logger *slog.Logger) Client {
	return &httpClient{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type classifyRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// classifyResponse accepts the label under either key; both shapes were
// produced by different classifier deployments.
type classifyResponse struct {
	Label      string   `json:"label"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
}

func (c *httpClient) Classify(ctx context.Context, text, source string) (*Result, error) {
	if c.baseURL == "" {
		return nil, domain.ErrClassifierUnavailable
	}

	payload, err := json.Marshal(classifyRequest{Text: text, Source: source})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "classifier request failed", "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", domain.ErrClassifierUnavailable, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrInvalidClassifierResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidClassifierResponse, err)
	}

	return validate(parsed)
}

// validate enforces the strict result contract at the adapter boundary:
// a non-empty label and a confidence within [0, 1].
func validate(resp classifyResponse) (*Result, error) {
	label := resp.Label
	if label == "" {
		label = resp.Category
	}

	if strings.TrimSpace(label) == "" {
		return nil, fmt.Errorf("%w: missing label", domain.ErrInvalidClassifierResponse)
	}

	if resp.Confidence == nil {
		return nil, fmt.Errorf("%w: missing confidence", domain.ErrInvalidClassifierResponse)
	}

	confidence := *resp.Confidence
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("%w: confidence %f out of range", domain.ErrInvalidClassifierResponse, confidence)
	}

	return &Result{Label: label, Confidence: confidence}, nil
}
