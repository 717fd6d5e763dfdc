// Package retry implements the backoff policy shared by page lookups and
// audio downloads.
package retry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"
)

// Policy is an exponential backoff with jitter and an optional attempt cap.
// A MaxAttempts of zero never gives up; only context cancellation stops it.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewExponential builds a policy. Non-positive delays fall back to defaults.
func NewExponential(maxAttempts int, baseDelay, maxDelay time.Duration) *Policy {
	if baseDelay <= 0 {
		baseDelay = 250 * time.Millisecond
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return &Policy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
}

// MaxAttempts returns the attempt cap (0 means unbounded).
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether another attempt follows a failed one.
// attempt is the number of attempts already made.
func (p *Policy) ShouldRetry(ctx context.Context, err error, attempt int) bool {
	if err == nil {
		return false
	}
	if ctx.Err() != nil {
		return false
	}
	return !p.Exhausted(attempt)
}

// Exhausted reports whether the cap has been reached after attempt attempts.
func (p *Policy) Exhausted(attempt int) bool {
	return p.maxAttempts > 0 && attempt >= p.maxAttempts
}

// Backoff returns the wait duration before the next attempt.
func (p *Policy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

// Wait sleeps for the backoff of attempt or until ctx ends.
func (p *Policy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (p *Policy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
