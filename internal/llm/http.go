// In file: internal/llm/http.go
package llm

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// transport carries the HTTP settings shared by the REST-based clients.
type transport struct {
	maxAttempts int
	httpClient  *http.Client
}

func newTransport(opts []ClientOption) transport {
	t := transport{maxAttempts: defaultMaxAttempts, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// ClientOption configures the HTTP behaviour of the OpenAI and Anthropic clients.
type ClientOption func(*transport)

// WithMaxAttempts sets how many times a request is tried. Values below 1 are ignored.
func WithMaxAttempts(n int) ClientOption {
	return func(t *transport) {
		if n >= 1 {
			t.maxAttempts = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(t *transport) {
		if hc != nil {
			t.httpClient = hc
		}
	}
}

// postWithRetry sends the request built by newReq up to maxAttempts times.
// Transport failures and 5xx answers are retried with exponential backoff;
// 4xx answers are returned at once. label names the call in error messages.
func (t transport) postWithRetry(ctx context.Context, label string, newReq func() (*http.Request, error)) ([]byte, error) {
	maxAttempts := t.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	delay := initialRetryDelay
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			log.Printf("⏳ Retrying %s in %s (attempt %d/%d)", label, delay, i+1, maxAttempts)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%s cancelled: %w", label, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		req, err := newReq()
		if err != nil {
			return nil, err
		}
		resp, err := t.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%s request failed (attempt %d/%d): %w", label, i+1, maxAttempts, err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		if err := resp.Body.Close(); err != nil {
			log.Printf("Warning: Failed to close response body: %v", err)
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s response body: %w", label, readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s error (attempt %d/%d): status %d, body: %s", label, i+1, maxAttempts, resp.StatusCode, string(body))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, lastErr
		}
	}
	return nil, lastErr
}
