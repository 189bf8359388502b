package scraper

import (
	"testing"
	"time"
)

// fakeClock drives a throttle without real sleeping. Sleeping advances
// the clock so elapsed-time math stays consistent.
type fakeClock struct {
	current time.Time
	slept   []time.Duration
}

func (fc *fakeClock) install(th *throttle) {
	th.now = func() time.Time { return fc.current }
	th.sleep = func(d time.Duration) {
		fc.slept = append(fc.slept, d)
		fc.current = fc.current.Add(d)
	}
}

func (fc *fakeClock) totalSlept() time.Duration {
	var total time.Duration
	for _, d := range fc.slept {
		total += d
	}
	return total
}

func TestThrottleFirstRequestDoesNotSleep(t *testing.T) {
	th := newThrottle(2 * time.Second)
	fc := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fc.install(th)

	th.wait()
	if len(fc.slept) != 0 {
		t.Fatalf("first wait slept %v, want no sleep", fc.slept)
	}
}

func TestThrottleEnforcesMinimumInterval(t *testing.T) {
	th := newThrottle(2 * time.Second)
	fc := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fc.install(th)

	th.wait()
	th.mark()

	// Half a second later the next request must wait out the rest.
	fc.current = fc.current.Add(500 * time.Millisecond)
	before := fc.current
	th.wait()

	if got := fc.current.Sub(before); got != 1500*time.Millisecond {
		t.Fatalf("slept %v, want 1.5s", got)
	}
	th.mark()

	// Requests started at least the configured interval apart.
	if len(fc.slept) != 1 || fc.slept[0] != 1500*time.Millisecond {
		t.Fatalf("slept %v, want exactly one 1.5s sleep", fc.slept)
	}
}

func TestThrottleSkipsSleepAfterLongGap(t *testing.T) {
	th := newThrottle(time.Second)
	fc := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fc.install(th)

	th.mark()
	fc.current = fc.current.Add(5 * time.Second)
	th.wait()

	if len(fc.slept) != 0 {
		t.Fatalf("wait slept %v after a gap longer than the interval", fc.slept)
	}
}

func TestThrottleDisabled(t *testing.T) {
	th := newThrottle(0)
	fc := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fc.install(th)

	th.mark()
	th.wait()
	if len(fc.slept) != 0 {
		t.Fatalf("zero-interval throttle slept %v", fc.slept)
	}
}
