package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSetExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	v, ok, _ := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)

	v[0] = 'x'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again, "callers must not alias cached bytes")

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i, want := range []bool{true, true} {
		v, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, v.Allowed, "hit %d", i)
	}
	now = now.Add(20 * time.Second)
	v, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, 40*time.Second, v.RetryAfter)

	v, _ = l.Allow(ctx, "5.6.7.8")
	assert.True(t, v.Allowed, "keys are independent")

	now = now.Add(time.Minute)
	v, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, v.Allowed, "new window")
	assert.Len(t, l.windows, 1, "expired windows are collected")
}

func TestMemoryLimiter_DisabledWhenUnset(t *testing.T) {
	l := NewMemoryLimiter(0, 0)
	for i := 0; i < 10; i++ {
		v, _ := l.Allow(context.Background(), "k")
		assert.True(t, v.Allowed)
	}
}
