package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "restomap/internal/adapters/redis"
	"restomap/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return redisad.NewWithClient(c, "test:"), mr
}

func TestCache_SetGetDel(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	in := domain.Search{ID: "s1", Origin: "Paris", Destination: "Lyon", Payload: []byte(`[{"place_id":"p1"}]`)}
	require.NoError(t, cache.Set(ctx, "search:s1", in, 60))
	assert.True(t, mr.Exists("test:search:s1"))

	var out domain.Search
	ok, err := cache.Get(ctx, "search:s1", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Lyon", out.Destination)
	assert.JSONEq(t, `[{"place_id":"p1"}]`, string(out.Payload))

	require.NoError(t, cache.Del(ctx, "search:s1"))
	ok, err = cache.Get(ctx, "search:s1", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTL(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", map[string]int{"a": 1}, 30))
	mr.FastForward(31 * time.Second)

	var out map[string]int
	ok, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, ok)
}
