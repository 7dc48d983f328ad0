package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

const defaultMaxRetries = 3

// RetryTransport retries transient failures: connection-level errors and
// 429/500/502/503/504 responses. Backoff doubles per attempt, and a
// Retry-After header on a 429 overrides the computed wait. attemptTimeout
// bounds each individual attempt; backoff waits between attempts are not
// charged against it, so the full retry schedule always gets to run.
type RetryTransport struct {
	base           http.RoundTripper
	maxRetries     int
	backoff        time.Duration
	attemptTimeout time.Duration
}

// WithRetries wraps base with the retry policy. attemptTimeout, when
// positive, is applied to every attempt separately; callers should not also
// set http.Client.Timeout, which would bound the whole exchange including
// the backoff waits.
func WithRetries(base http.RoundTripper, attemptTimeout time.Duration) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RetryTransport{
		base:           base,
		maxRetries:     defaultMaxRetries,
		backoff:        time.Second,
		attemptTimeout: attemptTimeout,
	}
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Preserve the original request body for retries
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		err = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to close request body: %w", err)
		}
	}

	var resp *http.Response
	var err error
	for attempt := 0; ; attempt++ {
		// Restore the request body for each attempt
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		// Each attempt gets its own deadline, derived from the caller's
		// context so caller cancellation still wins
		attemptReq := req
		cancel := context.CancelFunc(func() {})
		if t.attemptTimeout > 0 {
			var attemptCtx context.Context
			attemptCtx, cancel = context.WithTimeout(req.Context(), t.attemptTimeout)
			attemptReq = req.WithContext(attemptCtx)
		}

		resp, err = t.base.RoundTrip(attemptReq)
		if err == nil && !retryableStatus(resp.StatusCode) {
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			return resp, nil
		}
		if attempt >= t.maxRetries {
			if resp != nil {
				resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
			} else {
				cancel()
			}
			return resp, err
		}

		wait := t.backoff << attempt
		if err != nil {
			log.Printf("Request to %s failed (%v), retrying in %s", req.URL.Host, err, wait)
		} else {
			if resp.StatusCode == http.StatusTooManyRequests {
				if retryAfter := parseRetryAfter(resp.Header.Get("retry-after")); retryAfter > 0 {
					wait = retryAfter
				}
			}
			log.Printf("Request to %s returned %d, retrying in %s", req.URL.Host, resp.StatusCode, wait)
			// Close the response body to free resources before retrying
			if closeErr := resp.Body.Close(); closeErr != nil {
				cancel()
				return nil, fmt.Errorf("failed to close response body: %w", closeErr)
			}
		}
		cancel()

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// cancelOnClose releases an attempt's timeout context once the caller has
// finished with the response body.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if retryTime, err := time.Parse(time.RFC1123, value); err == nil {
		return time.Until(retryTime)
	}
	return 0
}
