package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/ff-market-indexer/internal/logger"
)

// MAX_HTTP_RESPONSE_SIZE caps the body read from remote documents
const MAX_HTTP_RESPONSE_SIZE = 1 << 20

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Get performs a GET request and returns the response body
	Get(ctx context.Context, url string) ([]byte, error)
}

type httpClient struct {
	client         *http.Client
	maxElapsedTime time.Duration
}

// NewHTTPClient creates a new HTTP client. Rate limited and 5xx responses are
// retried until maxElapsedTime.
func NewHTTPClient(timeout, maxElapsedTime time.Duration) HTTPClient {
	return &httpClient{
		client:         &http.Client{Timeout: timeout},
		maxElapsedTime: maxElapsedTime,
	}
}

// Get performs a GET request with exponential backoff on 429 and 5xx responses
func (c *httpClient) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", url))
			}
		}()

		if IsHTTPRetryableStatus(resp.StatusCode) {
			logger.Warn("retryable response, backing off", zap.String("url", url), zap.Int("status", resp.StatusCode))
			return fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("unexpected status code %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, MAX_HTTP_RESPONSE_SIZE))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = c.maxElapsedTime
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}
	return body, nil
}

// IsHTTPRetryableStatus reports whether a response status is worth retrying
func IsHTTPRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
