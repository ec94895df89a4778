// Package hibp is a client for the HaveIBeenPwned v3 API. It covers breach,
// paste, stealer-log and subscription queries plus k-Anonymity password
// checks, and keeps callers inside their subscription's request quota.
package hibp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the HIBP v3 API root.
	DefaultBaseURL = "https://haveibeenpwned.com/api/v3"
	// DefaultPasswordBaseURL is the pwned-passwords range API root.
	// It is a separate, unauthenticated host.
	DefaultPasswordBaseURL = "https://api.pwnedpasswords.com"

	defaultUserAgent = "breachmon"
	defaultTimeout   = 10 * time.Second

	// defaultRetryAfter is used when a 429 carries no Retry-After hint.
	defaultRetryAfter = 2 * time.Second
)

// Client talks to the HaveIBeenPwned API. The zero value is not usable;
// create one with New, NewWithRateLimit or NewWithAutoRateLimit.
//
// The rate limiter is held by pointer: handles created via WithRateLimiter
// share the same limiter state, so their combined request rate never exceeds
// the configured quota.
type Client struct {
	apiKey          string
	userAgent       string
	baseURL         string
	passwordBaseURL string
	httpClient      *http.Client
	limiter         *RateLimiter
}

// New creates a client without rate limiting. The server will still throttle
// callers that exceed their quota, so prefer one of the rate-limited
// constructors for anything beyond one-off calls.
func New(apiKey string) *Client {
	return &Client{
		apiKey:          apiKey,
		userAgent:       defaultUserAgent,
		baseURL:         DefaultBaseURL,
		passwordBaseURL: DefaultPasswordBaseURL,
		httpClient:      &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithRateLimit creates a client limited to rpm requests per minute.
func NewWithRateLimit(apiKey string, rpm int) *Client {
	c := New(apiKey)
	c.limiter = NewRateLimiter(rpm)
	return c
}

// NewWithAutoRateLimit creates a client whose rate limit is read from the
// API key's subscription. The probe call itself is not rate limited, since
// no quota is known before it completes. If the probe fails no client is
// returned.
func NewWithAutoRateLimit(ctx context.Context, apiKey string) (*Client, error) {
	probe := New(apiKey)
	status, err := probe.GetSubscriptionStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscription probe failed: %w", err)
	}
	return NewWithRateLimit(apiKey, status.Rpm), nil
}

// WithUserAgent sets the User-Agent header sent with every request.
func (c *Client) WithUserAgent(userAgent string) *Client {
	c.userAgent = userAgent
	return c
}

// WithHTTPClient replaces the underlying HTTP client, e.g. to change the
// request timeout.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

// WithBaseURL overrides the API root. Mostly useful for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithPasswordBaseURL overrides the pwned-passwords API root.
func (c *Client) WithPasswordBaseURL(baseURL string) *Client {
	c.passwordBaseURL = baseURL
	return c
}

// WithRateLimiter attaches an existing limiter. Passing a limiter already
// attached to another client makes both handles share one quota.
func (c *Client) WithRateLimiter(limiter *RateLimiter) *Client {
	c.limiter = limiter
	return c
}

// RateLimiter returns the client's limiter, or nil when unlimited.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// do acquires a rate-limit slot, performs a GET against url and classifies
// the response. A 429 is retried exactly once after the server's Retry-After
// hint; a second 429 is surfaced as *RateLimitError. On success the caller
// owns the response body.
func (c *Client) do(ctx context.Context, url string, extraHeaders map[string]string) (*http.Response, error) {
	retried := false
	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("hibp-api-key", c.apiKey)
		req.Header.Set("User-Agent", c.userAgent)
		for k, v := range extraHeaders {
			req.Header.Set(k, v)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}

		logrus.WithFields(logrus.Fields{
			"url":    url,
			"status": resp.StatusCode,
		}).Debug("HIBP API response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return nil, ErrUnauthorized
		case resp.StatusCode == http.StatusTooManyRequests:
			retryAfter := parseRetryAfter(resp.Header)
			resp.Body.Close()
			if retried {
				return nil, &RateLimitError{RetryAfter: retryAfter}
			}
			retried = true
			logrus.WithField("retry_after", retryAfter).Warn("Rate limited by server, retrying once")
			if err := sleepContext(ctx, retryAfter); err != nil {
				return nil, err
			}
		default:
			code := resp.StatusCode
			resp.Body.Close()
			return nil, &StatusError{StatusCode: code}
		}
	}
}

// getJSON performs a dispatched GET and decodes the JSON body into v.
func (c *Client) getJSON(ctx context.Context, url string, v interface{}) error {
	resp, err := c.do(ctx, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getText performs a dispatched GET and returns the raw body.
func (c *Client) getText(ctx context.Context, url string, extraHeaders map[string]string) (string, error) {
	resp, err := c.do(ctx, url, extraHeaders)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// parseRetryAfter reads a Retry-After header expressed in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	value := h.Get("Retry-After")
	if value == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
