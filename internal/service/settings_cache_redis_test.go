package service

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"testing"

	"crypto_invest/internal/domain"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisForTest connects to REDIS_ADDR or skips the test.
func redisForTest(t *testing.T) *redis.Client {
	t.Helper()
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
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func cachedSettingsService(t *testing.T, store SettingsStore) (*SettingsService, *redis.Client) {
	rdb := redisForTest(t)
	svc := NewSettingsService(store, rdb, nil)
	svc.cacheKey = "test:settings:" + uuid.NewString()
	t.Cleanup(func() { rdb.Del(context.Background(), svc.cacheKey) })
	return svc, rdb
}

func TestSettingsCache_GetFillsKey(t *testing.T) {
	svc, rdb := cachedSettingsService(t, &memSettingsStore{})
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	raw, err := rdb.Get(ctx, svc.cacheKey).Bytes()
	require.NoError(t, err)
	var cached domain.Settings
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.Equal(t, domain.DefaultSettings().ProfitInterval, cached.ProfitInterval)

	ttl, err := rdb.TTL(ctx, svc.cacheKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl, settingsCacheTTL)
}

func TestSettingsCache_UpdateIsVisibleToNextGet(t *testing.T) {
	svc, _ := cachedSettingsService(t, &memSettingsStore{})
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	rate := decimal.RequireFromString("3.25")
	_, err = svc.Update(ctx, uuid.New(), domain.SettingsPatch{ProfitPercentage: &rate})
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ProfitPercentage.Equal(rate), "got %s", got.ProfitPercentage)
}

func TestSettingsCache_StaleFillDoesNotOverwriteUpdate(t *testing.T) {
	store := &memSettingsStore{}
	svc, _ := cachedSettingsService(t, store)
	ctx := context.Background()

	// A reader that loaded the old row before the update finishes late.
	stale, err := svc.load(ctx)
	require.NoError(t, err)

	rate := decimal.RequireFromString("9.5")
	_, err = svc.Update(ctx, uuid.New(), domain.SettingsPatch{ProfitPercentage: &rate})
	require.NoError(t, err)

	svc.fillCache(ctx, stale)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.ProfitPercentage.Equal(rate), "got %s", got.ProfitPercentage)
}
