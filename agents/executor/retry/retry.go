/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
)

// rateLimitMarkers are matched case-insensitively against the fault text.
// Groq reports token-per-minute exhaustion with "tokens" in the error type,
// which is why that marker is so broad.
var rateLimitMarkers = []string{"rate_limit", "tokens", "ratelimiterror"}

// suggestedDelay matches the backend hint, e.g. "Please try again in 14.02s".
var suggestedDelay = regexp.MustCompile(`try again in (\d+\.?\d*)s`)

// Config configures the attempt budget and the rate-limit backoff.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first (default: 3).
	MaxAttempts int
	// DefaultWait is both the wait used when the fault carries no hint and the
	// floor for hinted waits (default: 65s, longer than the 60s quota window).
	DefaultWait time.Duration
	// Padding is added to a hinted delay (default: 15s).
	Padding time.Duration
	// Sleep blocks between attempts. Nil means SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the policy tuned for per-minute token quotas.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		DefaultWait: 65 * time.Second,
		Padding:     15 * time.Second,
	}
}

// Validate checks that the configuration has usable values.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.DefaultWait < 0 {
		return errors.New("default wait cannot be negative")
	}
	if c.Padding < 0 {
		return errors.New("padding cannot be negative")
	}
	return nil
}

// IsRateLimit reports whether err signals request-rate or token-budget exhaustion.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// Backoff returns how long to wait after a rate-limit fault. A hinted delay is
// padded and never allowed below DefaultWait.
func (c Config) Backoff(err error) time.Duration {
	wait := c.DefaultWait
	if err == nil {
		return wait
	}
	m := suggestedDelay.FindStringSubmatch(err.Error())
	if m == nil {
		return wait
	}
	secs, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil {
		return wait
	}
	return max(time.Duration(secs*float64(time.Second))+c.Padding, c.DefaultWait)
}

// ExhaustedRetriesError is returned when every attempt failed on a rate limit.
type ExhaustedRetriesError struct {
	Operation string
	Attempts  int
	Last      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts. Last error: %v", e.Operation, e.Attempts, e.Last)
}

func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Last
}

// Do runs fn until it succeeds, fails with a fault that is not a rate limit,
// or the attempt budget is spent. Attempts never overlap: the backoff sleep
// completes before the next attempt starts.
func Do[T any](ctx context.Context, cfg Config, operation string, fn func(attempt int) (T, error)) (T, error) {
	var zero T
	if err := cfg.Validate(); err != nil {
		return zero, err
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	log := clog.FromContext(ctx).With("operation", operation)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		log.Infof("Attempt %d/%d...", attempt, cfg.MaxAttempts)

		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRateLimit(err) {
			return zero, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := cfg.Backoff(err)
		log.With("attempt", attempt).
			With("max_attempts", cfg.MaxAttempts).
			With("backoff", wait).
			With("error", err.Error()).
			Warnf("Rate limit hit, waiting %.0fs before retry %d/%d", wait.Seconds(), attempt+1, cfg.MaxAttempts)

		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedRetriesError{
		Operation: operation,
		Attempts:  cfg.MaxAttempts,
		Last:      lastErr,
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
