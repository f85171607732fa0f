package derive

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultThrottleInterval is the minimum spacing between delivered samples.
const DefaultThrottleInterval = 100 * time.Millisecond

// Throttler rate-limits calls to at most one per interval. Calls that arrive
// too early are held as pending; only the latest pending call is kept.
// All calls run synchronously on the caller's goroutine.
type Throttler struct {
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	limiter *rate.Limiter // nil when throttling is disabled
	pending func()
}

// NewThrottler creates a throttler. A non-positive interval disables
// throttling. A nil now uses time.Now.
func NewThrottler(interval time.Duration, now func() time.Time) *Throttler {
	if now == nil {
		now = time.Now
	}
	t := &Throttler{interval: interval, now: now}
	if interval > 0 {
		t.limiter = newLimiter(interval)
	}
	return t
}

// newLimiter allows one event per interval with no burst beyond it.
func newLimiter(interval time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Do runs fn if the interval has elapsed since the last delivered call.
// Otherwise fn replaces any pending call and Do reports false.
func (t *Throttler) Do(fn func()) bool {
	t.mu.Lock()
	if t.limiter != nil && !t.limiter.AllowN(t.now(), 1) {
		t.pending = fn
		t.mu.Unlock()
		return false
	}
	t.pending = nil
	t.mu.Unlock()

	fn()
	return true
}

// Force runs fn immediately regardless of the interval and discards any
// pending call. The next Do is spaced from this call.
func (t *Throttler) Force(fn func()) {
	t.mu.Lock()
	t.restart()
	t.mu.Unlock()

	fn()
}

// Flush runs the pending call, if any, and reports whether one ran.
func (t *Throttler) Flush() bool {
	t.mu.Lock()
	fn := t.pending
	if fn == nil {
		t.mu.Unlock()
		return false
	}
	t.restart()
	t.mu.Unlock()

	fn()
	return true
}

// restart drops the pending call and empties the bucket at the current
// time, so a full interval must pass before Do delivers again.
// It must be called with mu held.
func (t *Throttler) restart() {
	t.pending = nil
	if t.limiter == nil {
		return
	}
	t.limiter = newLimiter(t.interval)
	t.limiter.AllowN(t.now(), 1)
}
