package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"skillwise_backend/internal/config"

	"github.com/go-redis/redis/v8"
)

const redisPingTimeout = 3 * time.Second

// RedisOptions 未配置的连接池参数使用默认值
func RedisOptions(cfg *config.RedisConfig) *redis.Options {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 50
	}
	minIdle := cfg.MinIdleConns
	if minIdle < 0 || minIdle > poolSize {
		minIdle = 0
	}
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
	}
}

// InitRedis 连接并探活，ctx 取消或超时即放弃
func InitRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(RedisOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", rdb.Options().Addr, err)
	}

	log.Println("Redis connection established")
	return rdb, nil
}
