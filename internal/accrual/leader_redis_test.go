package accrual

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisLeader_HandOver(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD"), DB: db})
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	t.Cleanup(func() { _ = rdb.Close() })

	key := "test:accrual:leader:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), key) })

	first := NewRedisLeader(rdb, time.Minute)
	first.key = key
	second := NewRedisLeader(rdb, time.Minute)
	second.key = key

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// the holder renews, the other instance stays out
	ok, err = first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// a non-holder's release leaves the lock alone
	require.NoError(t, second.Release(ctx))
	holder, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, first.id, holder)

	require.NoError(t, first.Release(ctx))
	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = first.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
