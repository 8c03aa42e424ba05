package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreGetSet(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "phone:15551234567")
	require.NoError(t, err)
	assert.False(t, ok, "expected miss before set")

	require.NoError(t, store.Set(ctx, "phone:15551234567", "conv-1"))

	value, ok, err := store.Get(ctx, "phone:15551234567")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "conv-1", value)

	// Last write wins.
	require.NoError(t, store.Set(ctx, "phone:15551234567", "conv-2"))
	value, _, err = store.Get(ctx, "phone:15551234567")
	require.NoError(t, err)
	assert.Equal(t, "conv-2", value)
}

func TestRedisStoreNilSafe(t *testing.T) {
	var store *RedisStore
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "anything")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, store.Set(ctx, "anything", "value"))
}

func TestStatefulResolverOnRedis(t *testing.T) {
	store := newTestRedisStore(t)
	r := NewStatefulResolver(store, &countingMinter{id: "conv-redis"}, nil)
	ctx := context.Background()

	id, err := r.Resolve(ctx, "15551234567")
	require.NoError(t, err)
	assert.Equal(t, "conv-redis", id)
	assert.Equal(t, "15551234567", r.ReverseResolve(ctx, "conv-redis"))
}
