package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestPerKeyReturnsSameLimiterForSameKey(t *testing.T) {
	store := NewPerKey(rate.Limit(1), 2)

	first := store.Get("chat-42")
	second := store.Get("chat-42")
	other := store.Get("chat-43")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}

func TestPerKeyLimiterHonorsBurst(t *testing.T) {
	store := NewPerKey(rate.Limit(1), 2)
	limiter := store.Get("chat-42")

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())
}

func TestTokenBudgetWaitWithinBudget(t *testing.T) {
	budget := NewTokenBudget(100)

	err := budget.Wait(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 40, budget.Remaining())
}

func TestTokenBudgetRejectsOversizedRequest(t *testing.T) {
	budget := NewTokenBudget(10)

	err := budget.Wait(context.Background(), 11)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds budget capacity")
}

func TestTokenBudgetWaitAbortsOnCanceledContext(t *testing.T) {
	budget := NewTokenBudget(10)
	require.NoError(t, budget.Wait(context.Background(), 10))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := budget.Wait(ctx, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
