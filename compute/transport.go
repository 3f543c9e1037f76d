package compute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tilinna/clock"
	"go.uber.org/zap"

	"github.com/yaroslav/gcompute/internal/logging"
	"github.com/yaroslav/gcompute/internal/metrics"
)

// newBackOff returns the retry policy for a single request.
func (c *Client) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.RetryWaitMin
	eb.MaxInterval = c.RetryWaitMax
	eb.MaxElapsedTime = 0

	b := backoff.WithMaxRetries(eb, uint64(c.RetryAttempts))
	b.Reset()
	return b
}

// doRequestWithRetry performs an HTTP request, retrying network errors, 5xx
// responses and 429 responses with exponential backoff. body is re-sent on
// every attempt.
func (c *Client) doRequestWithRetry(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	b := c.newBackOff()
	collection := collectionFromURL(url)

	for attempt := 1; ; attempt++ {
		resp, err := c.doOnce(ctx, method, url, body, collection)
		if err == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			if err != nil {
				return nil, fmt.Errorf("request failed after %d attempts: %w", attempt, err)
			}
			return resp, nil
		}

		fields := []zap.Field{
			zap.String(logging.FieldMethod, method),
			zap.String(logging.FieldURL, url),
			zap.Int(logging.FieldAttempt, attempt),
			zap.Duration("backoff", next),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		} else {
			fields = append(fields, zap.Int(logging.FieldStatusCode, resp.StatusCode))
			drainAndCloseBody(resp)
		}
		c.logger.Debug("Request failed, retrying", fields...)
		metrics.APIRetriesTotal.WithLabelValues(method, collection).Inc()

		timer := clock.NewTimer(ctx, next)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// doOnce sends a single attempt of a request.
func (c *Client) doOnce(ctx context.Context, method, url string, body []byte, collection string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(method, collection).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, collection, "error").Inc()
		return nil, err
	}
	metrics.APIRequestsTotal.WithLabelValues(method, collection, strconv.Itoa(resp.StatusCode)).Inc()

	c.logger.Debug("API request",
		zap.String(logging.FieldMethod, method),
		zap.String(logging.FieldURL, url),
		zap.Int(logging.FieldStatusCode, resp.StatusCode),
		zap.Int64(logging.FieldDuration, time.Since(start).Milliseconds()),
	)
	return resp, nil
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// drainAndCloseBody reads and closes the response body to ensure connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
