// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry policy and rate-limited HTTP client
// shared by every source adapter.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Retry defaults. Three attempts with a 2 s base delay gives waits of 2 s
// and 4 s before the ceiling is reached.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
	DefaultMaxDelay    = 30 * time.Second
)

// TransientFetchError is a failure worth retrying: a timeout, a connection
// error, an HTTP 5xx, or an HTTP 429.
type TransientFetchError struct {
	URL        string
	StatusCode int // 0 for network errors
	Attempts   int // set by Policy.Do once the ceiling is reached
	RetryAfter time.Duration
	Err        error
}

func (e *TransientFetchError) Error() string {
	msg := "transient fetch error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s after %d attempts", msg, e.Attempts)
	}
	msg += ": " + e.URL
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// PermanentFetchError is a failure that retrying cannot fix, such as an HTTP
// 400 for a malformed query. It is never retried.
type PermanentFetchError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *PermanentFetchError) Error() string {
	msg := fmt.Sprintf("permanent fetch error (HTTP %d): %s", e.StatusCode, e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsTransient reports whether err wraps a TransientFetchError.
func IsTransient(err error) bool {
	var te *TransientFetchError
	return errors.As(err, &te)
}

// IsPermanent reports whether err wraps a PermanentFetchError.
func IsPermanent(err error) bool {
	var pe *PermanentFetchError
	return errors.As(err, &pe)
}

// Policy decides how many times an operation is attempted and how long to
// wait between attempts. The zero value is usable and takes the defaults above.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it with a
	// recorder so backoff runs without real delays.
	Sleep func(ctx context.Context, d time.Duration) error

	// Retryable selects errors worth another attempt. Defaults to IsTransient.
	Retryable func(error) bool

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns the policy used by the adapters when none is configured.
func DefaultPolicy() Policy {
	return Policy{}.withDefaults()
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultMaxDelay
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	if p.Retryable == nil {
		p.Retryable = IsTransient
	}
	return p
}

// Backoff returns the wait after the given failed attempt (1-based):
// BaseDelay doubled per attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempt
// ceiling is reached. Context cancellation stops the loop immediately and is
// returned unwrapped. When the final error is a TransientFetchError its
// Attempts field records how many attempts were made.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if !p.Retryable(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Backoff(attempt)
		var te *TransientFetchError
		if errors.As(err, &te) && te.RetryAfter > delay {
			delay = min(te.RetryAfter, p.MaxDelay)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if serr := p.Sleep(ctx, delay); serr != nil {
			return serr
		}
	}

	var te *TransientFetchError
	if errors.As(err, &te) {
		te.Attempts = p.MaxAttempts
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(h string, now time.Time) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.ParseInt(h, 10, 64); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
