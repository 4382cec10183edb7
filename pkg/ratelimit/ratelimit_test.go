package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestMemoryLimiterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(0, clock.now)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, clock.t.Add(time.Minute), d.ResetAt)

	other, err := limiter.Allow(ctx, "other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	clock.t = clock.t.Add(time.Minute + time.Second)
	d, err = limiter.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed, "new window resets the count")
}

func TestMemoryLimiterCapacity(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	limiter := NewMemoryLimiter(1, clock.now)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "a", 1, time.Second)
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "b", 1, time.Second)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	clock.t = clock.t.Add(2 * time.Second)
	_, err = limiter.Allow(ctx, "b", 1, time.Second)
	assert.NoError(t, err, "expired buckets are collected")
}

func TestNonPositiveLimitAllows(t *testing.T) {
	d, err := NewMemoryLimiter(0, nil).Allow(context.Background(), "k", 0, time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	limiter := NewRedisLimiter(client, "test:"+uuid.NewString()+":", nil)
	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	}
	d, err := limiter.Allow(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}
