package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out one token bucket per key (catalog host, API client)
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a limiter allowing perSecond events per key with the
// given burst. perSecond <= 0 disables limiting.
func NewLimiter(perSecond float64, burst int) *Limiter {
	r := rate.Limit(perSecond)
	if perSecond <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// PerHour creates a limiter expressed in events per hour
func PerHour(requestsPerHour int, burst int) *Limiter {
	return NewLimiter(float64(requestsPerHour)/3600.0, burst)
}

// GetLimiter returns the bucket for key, creating it on first use
func (l *Limiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}

	return limiter
}

// Allow reports whether an event for key may happen now
func (l *Limiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Wait blocks until an event for key is permitted or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.GetLimiter(key).Wait(ctx)
}

// Tokens returns the current number of available tokens for key
func (l *Limiter) Tokens(key string) float64 {
	return l.GetLimiter(key).Tokens()
}

// Burst returns the configured bucket size
func (l *Limiter) Burst() int {
	return l.burst
}
