package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles login attempts per operator code.
type Limiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	entries map[string]*limiterEntry
	now     func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

const maxLimiterEntries = 1000

func NewLimiter(perMinute, burst int, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		every:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		now:     now,
	}
}

// Allow reports whether another attempt for code may be checked now.
func (l *Limiter) Allow(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[code]
	if !ok {
		if len(l.entries) >= maxLimiterEntries {
			l.prune(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.entries[code] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// prune drops codes idle long enough for their bucket to be full again.
func (l *Limiter) prune(now time.Time) {
	idle := 10 * time.Minute
	for code, e := range l.entries {
		if now.Sub(e.lastSeen) > idle {
			delete(l.entries, code)
		}
	}
}
