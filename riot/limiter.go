package riot

import (
	"context"
	"sync"
	"time"

	"github.com/riftwatch/riftwatch/errors"
)

// WindowLimiter enforces max calls per time window using a sliding window.
// Riot enforces a long-window quota (100 calls per 2 minutes on dev keys) on
// top of the per-second limit; this guards the long window.
type WindowLimiter struct {
	maxCalls  int
	window    time.Duration
	mu        sync.Mutex
	callTimes []time.Time
	timeNow   func() time.Time // Injectable for testing
}

// NewWindowLimiter creates a sliding-window limiter with real time
func NewWindowLimiter(maxCalls int, window time.Duration) *WindowLimiter {
	return NewWindowLimiterWithClock(maxCalls, window, time.Now)
}

// NewWindowLimiterWithClock creates a limiter with injectable clock (for testing)
func NewWindowLimiterWithClock(maxCalls int, window time.Duration, timeNow func() time.Time) *WindowLimiter {
	return &WindowLimiter{
		maxCalls:  maxCalls,
		window:    window,
		callTimes: make([]time.Time, 0, maxCalls),
		timeNow:   timeNow,
	}
}

// Allow checks if a call is allowed under the window quota.
// Returns an ErrRateLimited-wrapped error if the quota is exhausted.
func (l *WindowLimiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeNow()
	l.removeExpiredCalls(now)

	if len(l.callTimes) >= l.maxCalls {
		err := errors.Wrapf(errors.ErrRateLimited, "%d calls in %s (limit: %d)",
			len(l.callTimes), l.window, l.maxCalls)
		return errors.WithHint(err, "lower the job's per-run caps or widen its schedule interval")
	}

	l.callTimes = append(l.callTimes, now)
	return nil
}

// Wait blocks until a call is allowed under the window quota.
// Returns an error if the context is cancelled first.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		if err := l.Allow(); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
			// Retry after short delay
		}
	}
}

// removeExpiredCalls removes call timestamps outside the sliding window.
// Must be called with lock held.
func (l *WindowLimiter) removeExpiredCalls(now time.Time) {
	cutoff := now.Add(-l.window)

	// Timestamps are ordered, so count expired calls from the front
	expired := 0
	for _, callTime := range l.callTimes {
		if !callTime.After(cutoff) {
			expired++
		} else {
			break
		}
	}

	l.callTimes = l.callTimes[expired:]
}

// Reset clears the limiter state
func (l *WindowLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.callTimes = l.callTimes[:0]
}

// Stats returns current window usage
func (l *WindowLimiter) Stats() (callsInWindow int, remaining int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.timeNow()
	l.removeExpiredCalls(now)

	callsInWindow = len(l.callTimes)
	remaining = l.maxCalls - callsInWindow
	if remaining < 0 {
		remaining = 0
	}

	return callsInWindow, remaining
}
