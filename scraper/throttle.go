package scraper

import (
	"sync"
	"time"
)

// throttle enforces a minimum wall-clock interval between any two
// outbound requests. A single timestamp tracks the last completed
// request, whatever its kind or outcome; the mutex serializes access so
// the single-flow contract survives concurrent callers. The clock and
// sleep funcs are swappable for tests.
type throttle struct {
	mu    sync.Mutex
	min   time.Duration
	last  time.Time
	now   func() time.Time
	sleep func(time.Duration)
}

func newThrottle(min time.Duration) *throttle {
	return &throttle{
		min:   min,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// wait blocks until at least min has elapsed since the last completed
// request.
func (t *throttle) wait() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.min <= 0 || t.last.IsZero() {
		return
	}
	if elapsed := t.now().Sub(t.last); elapsed < t.min {
		t.sleep(t.min - elapsed)
	}
}

// mark records the completion of a request, success or failure.
func (t *throttle) mark() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}
