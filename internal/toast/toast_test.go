package toast

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryDrainOrder(t *testing.T) {
	ctx := context.Background()
	q := NewInMemory(0)

	require.NoError(t, q.Push(ctx, "s1", New(Success, "Category created")))
	require.NoError(t, q.Push(ctx, "s1", New(Error, "Invalid code")))
	require.NoError(t, q.Push(ctx, "s2", New(Info, "other session")))

	got, err := q.Drain(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Category created", got[0].Message)
	assert.Equal(t, Error, got[1].Level)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	got, err = q.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got, _ = q.Drain(ctx, "s2")
	assert.Len(t, got, 1)
}

func TestInMemoryDropsOldest(t *testing.T) {
	ctx := context.Background()
	q := NewInMemory(3)
	for i := range 5 {
		require.NoError(t, q.Push(ctx, "s", New(Info, fmt.Sprint(i))))
	}
	got, err := q.Drain(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].Message)
	assert.Equal(t, "4", got[2].Message)
}

func redisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisQueue(client, "", 10*time.Minute), m
}

func TestRedisQueueTrimsAndExpires(t *testing.T) {
	ctx := context.Background()
	q, m := redisQueue(t)
	for i := range DefaultLimit + 5 {
		require.NoError(t, q.Push(ctx, "s1", New(Info, fmt.Sprint(i))))
	}

	list, err := m.List("portal:toasts:s1")
	require.NoError(t, err)
	assert.Len(t, list, DefaultLimit)
	assert.Equal(t, 10*time.Minute, m.TTL("portal:toasts:s1"))

	m.FastForward(11 * time.Minute)
	assert.False(t, m.Exists("portal:toasts:s1"))
}

func TestRedisQueueDrain(t *testing.T) {
	ctx := context.Background()
	q, m := redisQueue(t)
	for i := range DefaultLimit + 5 {
		require.NoError(t, q.Push(ctx, "s1", New(Info, fmt.Sprint(i))))
	}
	_, err := m.Push("portal:toasts:s1", "not json")
	require.NoError(t, err)

	got, err := q.Drain(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, DefaultLimit)
	assert.Equal(t, "5", got[0].Message)
	assert.Equal(t, fmt.Sprint(DefaultLimit+4), got[DefaultLimit-1].Message)
	assert.False(t, m.Exists("portal:toasts:s1"))

	got, err = q.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
