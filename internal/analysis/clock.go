package analysis

import (
	"context"
	"time"
)

// Clock abstracts time so polling and backoff can be driven by tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TimedOut reports whether budget has been used up at now for a job started at startedAt.
func TimedOut(startedAt, now time.Time, budget time.Duration) bool {
	return now.Sub(startedAt) >= budget
}

// remainingBudget is never negative.
func remainingBudget(startedAt, now time.Time, budget time.Duration) time.Duration {
	left := budget - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return left
}
