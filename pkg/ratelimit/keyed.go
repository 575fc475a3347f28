package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// PerKey hands out one rate.Limiter per key, so independent consumers
// (telegram chats, API callers) are throttled separately. Limiters are
// created on first use and live for the lifetime of the store.
type PerKey struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewPerKey(limit rate.Limit, burst int) *PerKey {
	return &PerKey{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (p *PerKey) Get(key string) *rate.Limiter {
	p.mu.RLock()
	limiter, ok := p.limiters[key]
	p.mu.RUnlock()
	if ok {
		return limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if limiter, ok := p.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(p.limit, p.burst)
	p.limiters[key] = limiter
	return limiter
}
