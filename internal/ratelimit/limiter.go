// Package ratelimit provides client side throttling for workspace API calls
// using a token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// RateLimiter implements a token bucket rate limiter.
// It allows bursts up to maxTokens, then refills at refillRate tokens/second.
// A cooldown, set after the server answers 429, blocks all callers until it
// expires regardless of the tokens available.
type RateLimiter struct {
	tokens        float64
	maxTokens     float64
	refillRate    float64
	lastRefill    time.Time
	cooldownUntil time.Time
	lastWarnTime  time.Time
	mu            sync.Mutex
}

// NewRateLimiter creates a limiter that starts with a full bucket.
func NewRateLimiter(tokensPerSecond float64, burstSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize,
		maxTokens:  burstSize,
		refillRate: tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// NewWorkspaceRateLimiter returns a limiter tuned for the workspace API scope.
func NewWorkspaceRateLimiter() *RateLimiter {
	return NewRateLimiter(WorkspaceRatePerSec, WorkspaceBurstCapacity)
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		wait := rl.CooldownRemaining()
		if wait == 0 {
			if rl.tryAcquire() {
				if d := time.Since(start); d > 5*time.Second {
					log.Debug().Dur("waited", d).Msg("rate limit wait completed")
				}
				return nil
			}
			wait = rl.timeUntilNextToken()
		}

		rl.maybeWarn(wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (rl *RateLimiter) maybeWarn(wait time.Duration) {
	if wait <= warnAfter {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if time.Since(rl.lastWarnTime) > warnInterval {
		log.Warn().Msgf("rate limited: waiting ~%.1fs for API capacity", wait.Seconds())
		rl.lastWarnTime = time.Now()
	}
}

// refill must be called with mu held.
func (rl *RateLimiter) refill(now time.Time) {
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

// tryAcquire takes one token without blocking.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	needed := 1.0 - rl.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / rl.refillRate * float64(time.Second))
}

// Drain empties the bucket so that subsequent callers pace at the refill rate.
func (rl *RateLimiter) Drain() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = 0
	rl.lastRefill = time.Now()
}

// SetCooldown blocks Wait for d. A shorter cooldown never shortens an active one.
func (rl *RateLimiter) SetCooldown(d time.Duration) {
	if d > MaxCooldown {
		d = MaxCooldown
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(rl.cooldownUntil) {
		rl.cooldownUntil = until
	}
}

// CooldownRemaining returns how long the active cooldown still lasts, or 0.
func (rl *RateLimiter) CooldownRemaining() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if d := time.Until(rl.cooldownUntil); d > 0 {
		return d
	}
	return 0
}

// GetCurrentTokens returns the current number of tokens (for testing/debugging).
func (rl *RateLimiter) GetCurrentTokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return rl.tokens
}
