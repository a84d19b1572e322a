package realtime

import (
	"sync"
	"time"
)

// throttle rate-limits outbound presence broadcasts. Events arriving
// inside the interval are dropped, not queued; the next event after the
// interval elapses goes out immediately.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newThrottle(interval time.Duration) *throttle {
	return &throttle{interval: interval}
}

func (t *throttle) allow(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.interval <= 0 {
		return true
	}
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
