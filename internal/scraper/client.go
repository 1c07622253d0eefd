// internal/scraper/client.go

// Package scraper implements the vendor actor API client: starting actor
// runs, polling them to completion and paging their result datasets.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/socialpulse/viralpipe/internal/config"
	"github.com/socialpulse/viralpipe/internal/errors"
)

// apiClient is a rate-limited JSON client for the vendor API. Transient
// vendor-side failures (429, 5xx) are retried here with backoff so callers
// see only final outcomes.
type apiClient struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	rateLimiter   *rate.Limiter
	retryAttempts int
	retryDelay    time.Duration
}

func newAPIClient(cfg config.ScraperConfig) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.APIToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		rateLimiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		retryAttempts: 3,
		retryDelay:    time.Second,
	}
}

// getJSON performs a GET against path and decodes the response into out.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// postJSON performs a POST with a JSON payload and decodes the response into out.
func (c *apiClient) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request payload: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, path, nil, data)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// do performs one API request with rate limiting and bounded retries on
// retryable status codes.
func (c *apiClient) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = errors.NewTransient("vendor api", err)
			if attempt < c.retryAttempts {
				if waitErr := sleepCtx(ctx, c.backoff(attempt)); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			break
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.NewTransient("vendor api", readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		lastErr = fmt.Errorf("%s %s returned HTTP %d: %s",
			method, path, resp.StatusCode, truncate(string(body), 200))
		if !retryableStatus(resp.StatusCode) {
			return nil, lastErr
		}
		if attempt < c.retryAttempts {
			if waitErr := sleepCtx(ctx, c.backoff(attempt)); waitErr != nil {
				return nil, waitErr
			}
		}
	}

	// Retries are exhausted at this point. The error is reported without the
	// transient marker so callers do not replay the whole operation, which
	// for an actor run would start and bill a fresh run.
	return nil, fmt.Errorf("vendor api request failed after %d attempts: %v",
		c.retryAttempts+1, lastErr)
}

func (c *apiClient) backoff(attempt int) time.Duration {
	delay := c.retryDelay * time.Duration(1<<uint(attempt))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

// retryableStatus reports whether a status code warrants a retry.
func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
