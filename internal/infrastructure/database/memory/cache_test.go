package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/RateCraft/pkg/errors"
)

type cachedValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", cachedValue{Name: "a", Count: 2}, time.Minute))
	var got cachedValue
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, cachedValue{Name: "a", Count: 2}, got)

	err := c.Get(ctx, "missing", &got)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCacheMiss))
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, time.Second))
	var v int
	require.NoError(t, c.Get(ctx, "k", &v))

	now = now.Add(time.Second)
	assert.ErrorIs(t, c.Get(ctx, "k", &v), ErrCacheMiss)
}

func TestCache_DeleteByPrefix(t *testing.T) {
	c := NewCache()
	ctx := context.Background()
	for _, k := range []string{"rating:ratetable:CA:1", "rating:ratetable:CA:2", "rating:ratetable:TX:1"} {
		require.NoError(t, c.Set(ctx, k, k, 0))
	}

	n, err := c.DeleteByPrefix(ctx, "rating:ratetable:CA:")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 1, c.Len())

	require.NoError(t, c.Delete(ctx, "rating:ratetable:TX:1"))
	assert.Equal(t, 0, c.Len())
}

//Personal.AI order the ending
