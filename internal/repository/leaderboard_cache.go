package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"skillwise_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	leaderboardKeyPrefix     = "leaderboard:"
	leaderboardGenerationKey = "leaderboard:generation"
)

// RedisLeaderboardCache 以 JSON 缓存排行榜结果
type RedisLeaderboardCache struct {
	Redis *redis.Client

	mu  sync.RWMutex
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{Redis: rdb, ttl: ttl}
}

// SetTTL 配置热更新时调用
func (c *RedisLeaderboardCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

func (c *RedisLeaderboardCache) currentTTL() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ttl
}

func leaderboardKey(generation int64, timeframe model.Timeframe, limit int) string {
	return fmt.Sprintf("%s%d:%s:%d", leaderboardKeyPrefix, generation, timeframe, limit)
}

// Generation 当前缓存代数，键不存在时为 0
func (c *RedisLeaderboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.Redis.Get(ctx, leaderboardGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get 未命中时返回 (nil, false, nil)
func (c *RedisLeaderboardCache) Get(ctx context.Context, generation int64, timeframe model.Timeframe, limit int) ([]model.LeaderboardEntry, bool, error) {
	raw, err := c.Redis.Get(ctx, leaderboardKey(generation, timeframe, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []model.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}
	return entries, true, nil
}

// Set 写入读取时所见代数下的键，失效后写入的旧结果不会再被读到
func (c *RedisLeaderboardCache) Set(ctx context.Context, generation int64, timeframe model.Timeframe, limit int, entries []model.LeaderboardEntry) error {
	ttl := c.currentTTL()
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, leaderboardKey(generation, timeframe, limit), raw, ttl).Err()
}

// Invalidate 递增代数，旧代数的键随 TTL 过期
func (c *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	return c.Redis.Incr(ctx, leaderboardGenerationKey).Err()
}
