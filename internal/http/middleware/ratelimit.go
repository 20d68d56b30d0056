package middleware

import (
	"net/http"
	"sync"
	"time"
)

// Webhook traffic is bursty: channel providers batch deliveries and retry
// aggressively on slow responses. The limiter throttles per caller IP so one
// misbehaving source cannot starve the inbound pipeline.
const (
	evictInterval = 5 * time.Minute
	idleEviction  = 10 * time.Minute
)

type tokenBucket struct {
	remaining float64
	refilled  time.Time
}

func (b *tokenBucket) take(now time.Time, perSecond float64, burst int) bool {
	b.remaining += now.Sub(b.refilled).Seconds() * perSecond
	if max := float64(burst); b.remaining > max {
		b.remaining = max
	}
	b.refilled = now

	if b.remaining < 1 {
		return false
	}
	b.remaining--
	return true
}

// RateLimiter throttles requests per caller using token buckets.
type RateLimiter struct {
	mu        sync.Mutex
	byCaller  map[string]*tokenBucket
	perSecond float64
	burst     int
}

// NewRateLimiter allows perSecond sustained requests with the given burst
// ceiling for each distinct caller.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		byCaller:  make(map[string]*tokenBucket),
		perSecond: perSecond,
		burst:     burst,
	}
	go rl.evictIdle()
	return rl
}

// Allow reports whether a request from caller fits within the limit.
func (rl *RateLimiter) Allow(caller string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.byCaller[caller]
	if !ok {
		b = &tokenBucket{remaining: float64(rl.burst), refilled: now}
		rl.byCaller[caller] = b
	}
	return b.take(now, rl.perSecond, rl.burst)
}

// evictIdle drops buckets for callers that went quiet, bounding map growth.
func (rl *RateLimiter) evictIdle() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-idleEviction)
		for caller, b := range rl.byCaller {
			if b.refilled.Before(cutoff) {
				delete(rl.byCaller, caller)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit rejects requests over the configured per-IP rate with 429.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := NewRateLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// chi's RealIP middleware runs earlier and rewrites RemoteAddr
			// from X-Real-Ip / X-Forwarded-For; fall back to the header for
			// routes mounted without it.
			caller := r.RemoteAddr
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				caller = xri
			}
			if !limiter.Allow(caller) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
