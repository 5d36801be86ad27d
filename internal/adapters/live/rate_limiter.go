package live

import (
	"sync"
	"time"

	"github.com/yhkiel05/team-map/internal/app"
)

// EventLimiter caps mutation-intent events per session over a sliding window.
type EventLimiter struct {
	mu       sync.Mutex
	history  map[app.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewEventLimiter(limit int, interval time.Duration) *EventLimiter {
	return &EventLimiter{
		history:  make(map[app.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *EventLimiter) Allow(sid app.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh

	return true
}

// Forget drops a session's history; called when its connection goes away.
func (rl *EventLimiter) Forget(sid app.SessionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
