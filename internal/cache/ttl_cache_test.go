package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2016, time.February, 1, 12, 0, 0, 0, time.UTC)
	c := &ttlCache[string, int]{
		entries: make(map[string]entry[int]),
		now:     func() time.Time { return now },
	}

	c.Set("answer", 42, time.Minute)

	value, ok := c.Get("answer")
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("answer")
	assert.False(t, ok)
}

func TestTTLCacheDeleteAndPurge(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("a", "1", time.Hour)
	c.Set("b", "2", time.Hour)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.Purge()
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestTTLCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("x", 1, 0)
	_, ok := c.Get("x")
	assert.False(t, ok)
}

func TestMemoComputesOncePerKey(t *testing.T) {
	calls := 0
	memo := NewMemo(time.Hour, func(ctx context.Context, args ...any) (int, error) {
		calls++
		return calls, nil
	})

	v, err := memo.Get(context.Background(), "stats")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = memo.Get(context.Background(), "stats")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, calls)

	// different arguments compute separately
	_, err = memo.Get(context.Background(), "other")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoInvalidate(t *testing.T) {
	calls := 0
	memo := NewMemo(time.Hour, func(ctx context.Context, args ...any) (int, error) {
		calls++
		return calls, nil
	})

	_, err := memo.Get(context.Background(), 2016)
	require.NoError(t, err)

	memo.Invalidate(2016)
	v, err := memo.Get(context.Background(), 2016)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	memo.InvalidateAll()
	_, err = memo.Get(context.Background(), 2016)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	fail := true
	memo := NewMemo(time.Hour, func(ctx context.Context, args ...any) (string, error) {
		if fail {
			return "", errors.New("flaky")
		}
		return "ok", nil
	})

	_, err := memo.Get(context.Background())
	assert.Error(t, err)

	fail = false
	v, err := memo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
