package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemorySetGet(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 2}, 0))

	var got payload
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	found, err = c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryExpiration(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", payload{Name: "x"}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got payload
	found, err := c.Get(ctx, "short", &got)
	require.NoError(t, err)
	assert.False(t, found)

	c.removeExpired()
	assert.Equal(t, 0, c.Size())
}

func TestMemoryDelete(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey("1", ""), payload{}, 0))
	require.NoError(t, c.Set(ctx, ProductKey("2", ""), payload{}, 0))
	require.NoError(t, c.Set(ctx, ProductListPrefix+"p1", payload{}, 0))
	require.NoError(t, c.Set(ctx, ProductListPrefix+"p2", payload{}, 0))

	require.NoError(t, c.Delete(ctx, ProductKey("1", "")))
	assert.Equal(t, 3, c.Size())

	require.NoError(t, c.DeleteByPrefix(ctx, ProductListPrefix))
	assert.Equal(t, 1, c.Size())

	var got payload
	found, _ := c.Get(ctx, ProductKey("2", ""), &got)
	assert.True(t, found)
}

func TestMemoryCloseTwice(t *testing.T) {
	c := NewMemory(time.Minute, time.Millisecond)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestProductGenerations(t *testing.T) {
	c := NewMemory(time.Minute, 0)
	defer c.Close()
	ctx := context.Background()

	before, err := ProductDetailKey(ctx, c, "abc")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, before, payload{Name: "old"}, 0))

	require.NoError(t, InvalidateProduct(ctx, c, "abc"))
	after, err := ProductDetailKey(ctx, c, "abc")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	// a late write under the old generation stays invisible
	require.NoError(t, c.Set(ctx, before, payload{Name: "stale"}, 0))
	var got payload
	found, err := c.Get(ctx, after, &got)
	require.NoError(t, err)
	assert.False(t, found)

	other, err := ProductDetailKey(ctx, c, "def")
	require.NoError(t, err)
	assert.Equal(t, ProductKey("def", ""), other)
}
