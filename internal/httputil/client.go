// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the per-request timeout when Client.HTTP is nil.
const DefaultTimeout = 30 * time.Second

const (
	maxBodyBytes  = 32 << 20
	maxErrorBytes = 512
)

// Observer receives request outcomes for metrics. Outcome is one of
// "ok", "transient" or "permanent".
type Observer interface {
	ObserveRequest(outcome string)
	ObserveRetry()
}

// Client issues GET requests through a token-bucket limiter and a retry
// Policy. A Client belongs to one source; adapters never share limiters.
// It is safe for concurrent use.
type Client struct {
	HTTP      *http.Client
	Limiter   *rate.Limiter // nil disables rate limiting
	Policy    Policy
	UserAgent string
	Logger    zerolog.Logger
	Observer  Observer // may be nil
}

// NewClient builds a Client with a fresh http.Client and a limiter allowing
// rps requests per second. A non-positive rps disables limiting.
func NewClient(timeout time.Duration, rps float64, policy Policy, userAgent string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		HTTP:      &http.Client{Timeout: timeout},
		Policy:    policy,
		UserAgent: userAgent,
		Logger:    zerolog.Nop(),
	}
	if rps > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c
}

// Get fetches rawURL and returns the response body. Errors are
// *TransientFetchError once the retry ceiling is hit, *PermanentFetchError
// for non-retryable statuses, or the context error on cancellation.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	policy := c.Policy
	prev := policy.OnRetry
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.Logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Str("url", rawURL).
			Msg("retrying request")
		if c.Observer != nil {
			c.Observer.ObserveRetry()
		}
		if prev != nil {
			prev(attempt, delay, err)
		}
	}

	var body []byte
	err := policy.Do(ctx, func(ctx context.Context) error {
		b, err := c.once(ctx, rawURL)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) once(ctx context.Context, rawURL string) (_ []byte, err error) {
	defer func() { c.observe(err) }()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientFetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &TransientFetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return nil, &PermanentFetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading body: %w", err)}
	}
	return body, nil
}

func (c *Client) observe(err error) {
	if c.Observer == nil {
		return
	}
	switch {
	case err == nil:
		c.Observer.ObserveRequest("ok")
	case IsPermanent(err):
		c.Observer.ObserveRequest("permanent")
	default:
		c.Observer.ObserveRequest("transient")
	}
}
