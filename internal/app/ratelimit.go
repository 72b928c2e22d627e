package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ConnLimiter is advisory admission control on new connection attempts,
// keyed by origin (source address). It keeps a sliding window of attempt
// timestamps per origin; the caller terminates denied connections.
type ConnLimiter struct {
	mu        sync.Mutex
	history   map[string][]time.Time
	limit     int
	window    time.Duration
	retention time.Duration
}

func NewConnLimiter(limit int, window, retention time.Duration) *ConnLimiter {
	return &ConnLimiter{
		history:   make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		retention: retention,
	}
}

// Allow records the attempt and reports whether it is admitted. Attempts
// older than the window do not count toward the limit.
func (l *ConnLimiter) Allow(origin string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := now.Add(-l.window)

	attempts := l.history[origin]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= l.limit {
		l.history[origin] = fresh
		log.Warn().Str("module", "app.ratelimit").Str("origin", origin).Int("attempts", len(fresh)).Msg("connection attempt denied")
		return false
	}

	fresh = append(fresh, now)
	l.history[origin] = fresh
	return true
}

// Sweep drops origins whose most recent attempt is older than the retention
// horizon, bounding memory. Returns the number of origins removed.
func (l *ConnLimiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	horizon := now.Add(-l.retention)
	removed := 0
	for origin, attempts := range l.history {
		if len(attempts) == 0 || attempts[len(attempts)-1].Before(horizon) {
			delete(l.history, origin)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Str("module", "app.ratelimit").Int("removed", removed).Msg("swept stale origins")
	}
	return removed
}
