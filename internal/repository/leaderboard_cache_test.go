package repository

import (
	"context"
	"testing"
	"time"

	"skillwise_backend/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboardCache(t *testing.T, ttl time.Duration) (*RedisLeaderboardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisLeaderboardCache(rdb, ttl), mr
}

func TestLeaderboardCacheRoundTrip(t *testing.T) {
	cache, mr := newTestLeaderboardCache(t, time.Minute)
	ctx := context.Background()
	entries := []model.LeaderboardEntry{{Rank: 1, UserID: 3, TotalPoints: 400, ChallengesCompleted: 1}}

	gen, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, gen)

	_, ok, err := cache.Get(ctx, gen, model.TimeframeAll, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, gen, model.TimeframeAll, 10, entries))
	got, ok, err := cache.Get(ctx, gen, model.TimeframeAll, 10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, entries, got)

	assert.True(t, mr.Exists("leaderboard:0:all:10"))
	assert.Equal(t, time.Minute, mr.TTL("leaderboard:0:all:10"))
}

func TestLeaderboardCacheStaleFillAfterInvalidate(t *testing.T) {
	cache, _ := newTestLeaderboardCache(t, time.Minute)
	ctx := context.Background()
	stale := []model.LeaderboardEntry{{Rank: 1, UserID: 3, TotalPoints: 400}}

	// 读者先取得代数，随后写者提交并失效，读者再回填旧结果
	readerGen, err := cache.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Set(ctx, readerGen, model.TimeframeWeekly, 10, stale))

	current, err := cache.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, readerGen+1, current)

	_, ok, err := cache.Get(ctx, current, model.TimeframeWeekly, 10)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaderboardCacheZeroTTLSkipsWrites(t *testing.T) {
	cache, mr := newTestLeaderboardCache(t, 0)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, 0, model.TimeframeAll, 10, []model.LeaderboardEntry{{Rank: 1, UserID: 1}}))
	assert.Empty(t, mr.Keys())

	cache.SetTTL(time.Second)
	require.NoError(t, cache.Set(ctx, 0, model.TimeframeAll, 10, []model.LeaderboardEntry{{Rank: 1, UserID: 1}}))
	assert.Len(t, mr.Keys(), 1)
}

func TestLeaderboardCacheSurfacesRedisErrors(t *testing.T) {
	cache, mr := newTestLeaderboardCache(t, time.Minute)
	ctx := context.Background()
	mr.Close()

	_, err := cache.Generation(ctx)
	assert.Error(t, err)
	assert.Error(t, cache.Invalidate(ctx))
}
