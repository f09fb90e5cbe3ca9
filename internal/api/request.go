package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// response is a successful HTTP response.
type response struct {
	body   []byte
	header http.Header
}

// esiURL builds an ESI URL for path, adding the datasource parameter.
func (c *Client) esiURL(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	if c.datasource != "" {
		q.Set("datasource", c.datasource)
	}

	fullURL := c.baseURL + path
	if len(q) > 0 {
		fullURL += "?" + q.Encode()
	}
	return fullURL
}

// doRequest performs a single GET.
func (c *Client) doRequest(ctx context.Context, fullURL string) (*response, error) {
	if err := c.gate.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
			Header:     resp.Header,
		}
		if apiErr.IsRateLimited() {
			c.gate.coolOff(throttleDelay(resp.Header, c.retryDelay))
		}
		return nil, apiErr
	}

	return &response{body: body, header: resp.Header}, nil
}

// doWithRetry performs a GET, retrying network failures, 5xx and throttling
// responses after a fixed delay. Other 4xx responses are returned at once.
func (c *Client) doWithRetry(ctx context.Context, fullURL string) (*response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying request",
				"attempt", attempt,
				"delay", c.retryDelay,
				"url", fullURL,
				"error", lastErr,
			)

			t := time.NewTimer(c.retryDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		resp, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.IsRetryable() {
			return nil, err
		}
	}

	return nil, &TransientError{URL: fullURL, Attempts: c.maxRetries + 1, Err: lastErr}
}

// throttleDelay reads how long the server wants callers to back off.
func throttleDelay(h http.Header, fallback time.Duration) time.Duration {
	for _, name := range []string{"Retry-After", "X-Esi-Error-Limit-Reset"} {
		if v := h.Get(name); v != "" {
			if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return fallback
}
