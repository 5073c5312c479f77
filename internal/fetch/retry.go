// Package fetch implements the rate-limited, retrying page fetcher.
package fetch

import (
	"crypto/rand"
	"math/big"
	"time"
)

// RetryPolicy controls how transient fetch failures are retried. A policy is
// either bounded (gives up after maxAttempts) or unbounded (never gives up);
// the choice is explicit at construction. Rate-limit waits never count
// against the attempt budget under either policy.
type RetryPolicy struct {
	maxAttempts int // 0 means unbounded
	baseDelay   time.Duration
	maxDelay    time.Duration
}

const (
	defaultBaseDelay = 1 * time.Second
	defaultMaxDelay  = 60 * time.Second
)

// Bounded returns a policy that surfaces a fatal error once maxAttempts
// attempts have failed. maxAttempts < 1 is clamped to 1.
func Bounded(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   normalizeDelay(baseDelay, defaultBaseDelay),
		maxDelay:    normalizeDelay(maxDelay, defaultMaxDelay),
	}
}

// Unbounded returns a policy that retries transient failures forever.
func Unbounded(baseDelay, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{
		baseDelay: normalizeDelay(baseDelay, defaultBaseDelay),
		maxDelay:  normalizeDelay(maxDelay, defaultMaxDelay),
	}
}

func normalizeDelay(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Exhausted reports whether attemptsUsed has consumed the budget.
func (p RetryPolicy) Exhausted(attemptsUsed int) bool {
	return p.maxAttempts > 0 && attemptsUsed >= p.maxAttempts
}

// IsBounded reports whether the policy carries an attempt budget.
func (p RetryPolicy) IsBounded() bool { return p.maxAttempts > 0 }

// BaseDelay is the fallback wait when a rate-limited response carries no
// Retry-After hint.
func (p RetryPolicy) BaseDelay() time.Duration { return p.baseDelay }

// Backoff returns the wait before the retry following failed attempt k
// (zero-based): base * 2^k plus jitter in [0, base), with the exponential
// part capped at maxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.maxDelay {
			delay = p.maxDelay
			break
		}
	}
	return delay + randomJitter(p.baseDelay)
}

func randomJitter(limit time.Duration) time.Duration {
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
