package notify

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) redis.UniversalClient {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBuffer(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	prefix := "test-" + uuid.NewString()
	b := NewRedisBuffer(client, RedisBufferOptions{Prefix: prefix, Capacity: 3, TTL: time.Minute})
	for v := int64(1); v <= 5; v++ {
		require.NoError(t, b.Push(ctx, "u1", envelope("u1", v)))
	}
	n, err := b.Len(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got, err := b.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(3), got[0].Version)
	require.Equal(t, int64(5), got[2].Version)

	ttl, err := client.TTL(ctx, fmt.Sprintf("%s:offline:u1", prefix)).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}

func TestRedisFanoutAcrossInstances(t *testing.T) {
	ctx := context.Background()
	client := redisClient(t)
	prefix := "test-" + uuid.NewString()
	buffer := NewRedisBuffer(client, RedisBufferOptions{Prefix: prefix, Capacity: 10})

	a := NewRedisFanout(client, buffer, nil, RedisFanoutOptions{Prefix: prefix})
	b := NewRedisFanout(client, buffer, nil, RedisFanoutOptions{Prefix: prefix})
	require.NoError(t, a.Start(ctx))
	require.NoError(t, b.Start(ctx))
	defer a.Close()
	defer b.Close()

	watch := NewQueueChannel(10)
	require.NoError(t, b.Register(ctx, "u1", "watch", watch))
	require.NoError(t, a.Notify(ctx, "u1", "phone", envelope("u1", 1)))

	select {
	case env := <-watch.Events():
		require.Equal(t, int64(1), env.Version)
	case <-time.After(5 * time.Second):
		t.Fatal("envelope was not delivered across instances")
	}

	// watch goes away; the next envelope is kept for it
	require.NoError(t, b.Unregister(ctx, "watch"))
	require.NoError(t, a.Notify(ctx, "u1", "phone", envelope("u1", 2)))
	pending, err := buffer.Snapshot(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, int64(2), pending[0].Version)

	again := NewQueueChannel(10)
	require.NoError(t, a.Register(ctx, "u1", "watch", again))
	require.Equal(t, []int64{2}, drain(again))
}
