package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisIdempotencyStore(client, "")

	isNew, err := store.MarkProcessed(ctx, "invoice-finalized:42", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, mr.Exists(DefaultKeyPrefix+"invoice-finalized:42"))

	isNew, err = store.MarkProcessed(ctx, "invoice-finalized:42", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew)

	processed, err := store.IsProcessed(ctx, "invoice-finalized:42")
	require.NoError(t, err)
	assert.True(t, processed)

	mr.FastForward(2 * time.Hour)
	processed, err = store.IsProcessed(ctx, "invoice-finalized:42")
	require.NoError(t, err)
	assert.False(t, processed)

	// Close must not shut down a client the store does not own
	require.NoError(t, store.Close())
	assert.NoError(t, client.Ping(ctx).Err())
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisIdempotencyStore(client, "test:")

	mr.Close()

	_, err := store.MarkProcessed(context.Background(), "k", time.Minute)
	assert.Error(t, err)
	_, err = store.IsProcessed(context.Background(), "k")
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), config.RedisConfig{Host: mr.Host(), Port: port})
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	mr.Close()
	_, err = NewRedisClient(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
