package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter manages token buckets per client key.
type limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    rate.Limit
	burst   int
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newLimiter allows requests tokens per minute per key, with burst capacity
// equal to one second's worth of tokens (minimum 1).
func newLimiter(perMin int) *limiter {
	burst := perMin / 60
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		buckets: make(map[string]*bucket),
		rate:    rate.Limit(float64(perMin) / 60),
		burst:   burst,
	}
}

// allow reports whether a request from key may proceed.
func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	// Opportunistic cleanup of idle buckets: pastes are bursty and the key
	// space is tiny, so a sweep on insert is enough.
	if !ok && len(l.buckets) > 1024 {
		cutoff := time.Now().Add(-10 * time.Minute)
		for k, old := range l.buckets {
			if old.lastSeen.Before(cutoff) {
				delete(l.buckets, k)
			}
		}
	}
	l.mu.Unlock()
	return b.limiter.Allow()
}
