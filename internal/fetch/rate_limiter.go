package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	githubRateCeiling = 5000
	lowWaterMark      = 10
	minCallDelay      = 100 * time.Millisecond
)

// Limiter paces outbound GitHub API calls. It tracks the remaining
// quota reported by response headers and blocks when the quota runs
// low until the reset instant passes.
type Limiter struct {
	mu        sync.Mutex
	remaining int
	resetAt   time.Time
	lastCall  time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		remaining: githubRateCeiling,
		resetAt:   time.Now().Add(time.Hour),
	}
}

// Wait blocks until the next call is safe to make. It returns the
// context error if the context is cancelled while waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.remaining <= lowWaterMark {
		pause := time.Until(l.resetAt)
		if pause > 0 {
			fmt.Printf("  rate limit low (%d remaining), sleeping %v until reset\n", l.remaining, pause.Round(time.Second))
			if err := l.sleepUnlocked(ctx, pause); err != nil {
				return err
			}
		}
		l.remaining = githubRateCeiling
		l.resetAt = time.Now().Add(time.Hour)
	}

	if gap := time.Since(l.lastCall); gap < minCallDelay {
		if err := l.sleepUnlocked(ctx, minCallDelay-gap); err != nil {
			return err
		}
	}

	l.lastCall = time.Now()
	return nil
}

// Observe records the quota state from a completed API response.
func (l *Limiter) Observe(remaining int, resetAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if remaining >= 0 {
		l.remaining = remaining
		l.resetAt = resetAt
	}
}

// sleepUnlocked releases the mutex for the duration of the sleep so
// concurrent callers can observe quota updates.
func (l *Limiter) sleepUnlocked(ctx context.Context, d time.Duration) error {
	l.mu.Unlock()
	defer l.mu.Lock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
