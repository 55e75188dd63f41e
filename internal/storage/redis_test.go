package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *RedisStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return NewRedisStoreWithClient(client)
}

func TestRedisStore_SetGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "test-key", `{"hello":"world"}`)
	require.NoError(t, err)

	val, err := store.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, val)
}

func TestRedisStore_Get_NotFound(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Remove(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "test-key", "value")
	require.NoError(t, err)

	err = store.Remove(ctx, "test-key")
	require.NoError(t, err)

	_, err = store.Get(ctx, "test-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Remove_MissingKey(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	// 删除不存在的键不报错
	err := store.Remove(ctx, "missing-key")
	assert.NoError(t, err)
}
