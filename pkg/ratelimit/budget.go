package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TokenBudget meters consumption in tokens per refill window, for APIs
// that bill by token count rather than request count. The whole budget
// is restored at once when the window elapses.
type TokenBudget struct {
	mu         sync.Mutex
	capacity   int
	remaining  int
	window     time.Duration
	lastRefill time.Time
}

func NewTokenBudget(tokensPerMinute int) *TokenBudget {
	return &TokenBudget{
		capacity:   tokensPerMinute,
		remaining:  tokensPerMinute,
		window:     time.Minute,
		lastRefill: time.Now(),
	}
}

// Wait blocks until the budget can cover the requested tokens, sleeping
// through refill windows as needed. It fails fast when the request can
// never fit in a full window.
func (b *TokenBudget) Wait(ctx context.Context, tokens int) error {
	if tokens > b.capacity {
		return fmt.Errorf("requested %d tokens exceeds budget capacity %d", tokens, b.capacity)
	}

	for {
		b.mu.Lock()
		b.refillLocked(time.Now())
		if b.remaining >= tokens {
			b.remaining -= tokens
			b.mu.Unlock()
			return nil
		}
		wakeAt := b.lastRefill.Add(b.window)
		b.mu.Unlock()

		timer := time.NewTimer(time.Until(wakeAt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (b *TokenBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	return b.remaining
}

func (b *TokenBudget) refillLocked(now time.Time) {
	if now.Sub(b.lastRefill) >= b.window {
		b.remaining = b.capacity
		b.lastRefill = now
	}
}
