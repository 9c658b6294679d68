package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Log         LogConfig `mapstructure:"log"`
	Database    DatabaseConfig
	JWT         JWTConfig
	Tracing     TracingConfig `mapstructure:"tracing"`
	Redis       RedisConfig
	CORS        CORSConfig        `mapstructure:"cors"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// LogConfig 日志输出与滚动配置，Level 为空时按 server.mode 决定
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

type RedisConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
}

// LedgerConfig 积分/连续天数账本配置
type LedgerConfig struct {
	// Timezone 决定"同一天"的日历边界
	Timezone string `mapstructure:"timezone"`
}

// QueueConfig 待评审队列分页配置
type QueueConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LeaderboardConfig 排行榜缓存配置
type LeaderboardConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	DefaultLimit    int `mapstructure:"default_limit"`
}

// Location 返回账本使用的时区，配置无效时回退到 UTC
func (c LedgerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c LeaderboardConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.file", "logs/skillwise.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.console", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("redis.pool_size", 50)
	v.SetDefault("redis.min_idle_conns", 5)
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("ledger.timezone", "UTC")
	v.SetDefault("queue.default_limit", 10)
	v.SetDefault("queue.max_limit", 50)
	v.SetDefault("leaderboard.cache_ttl_seconds", 60)
	v.SetDefault("leaderboard.default_limit", 10)
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SKILLWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// 显式绑定，带前缀的变量优先
	// Database
	v.BindEnv("database.host", "SKILLWISE_DATABASE_HOST", "DATABASE_HOST")
	v.BindEnv("database.port", "SKILLWISE_DATABASE_PORT", "DATABASE_PORT")
	v.BindEnv("database.user", "SKILLWISE_DATABASE_USER", "DATABASE_USER")
	v.BindEnv("database.password", "SKILLWISE_DATABASE_PASSWORD", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "SKILLWISE_DATABASE_NAME", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "SKILLWISE_JWT_SECRET", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.enabled", "SKILLWISE_REDIS_ENABLED", "REDIS_ENABLED")
	v.BindEnv("redis.host", "SKILLWISE_REDIS_HOST", "REDIS_HOST")
	v.BindEnv("redis.port", "SKILLWISE_REDIS_PORT", "REDIS_PORT")
	v.BindEnv("redis.password", "SKILLWISE_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SKILLWISE_SERVER_MODE", "SERVER_MODE")
	v.BindEnv("server.port", "SKILLWISE_SERVER_PORT", "SERVER_PORT")

	// Log
	v.BindEnv("log.level", "SKILLWISE_LOG_LEVEL", "LOG_LEVEL")

	// Tracing
	v.BindEnv("tracing.enabled", "SKILLWISE_TRACING_ENABLED", "TRACING_ENABLED")
	v.BindEnv("tracing.sample_ratio", "SKILLWISE_TRACING_SAMPLE_RATIO", "TRACING_SAMPLE_RATIO")
	v.BindEnv("tracing.collector_endpoint", "SKILLWISE_TRACING_COLLECTOR_ENDPOINT", "TRACING_COLLECTOR_ENDPOINT")

	// Ledger
	v.BindEnv("ledger.timezone", "SKILLWISE_LEDGER_TIMEZONE", "LEDGER_TIMEZONE")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验配置的一致性
func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Ledger.Timezone != "" {
		if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
			return fmt.Errorf("invalid ledger timezone %q: %w", c.Ledger.Timezone, err)
		}
	}
	if c.Queue.DefaultLimit <= 0 || c.Queue.MaxLimit < c.Queue.DefaultLimit {
		return fmt.Errorf("invalid queue limits: default=%d max=%d", c.Queue.DefaultLimit, c.Queue.MaxLimit)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing sample ratio %v, must be within [0, 1]", c.Tracing.SampleRatio)
	}
	if c.RateLimit.MaxRequests <= 0 || c.RateLimit.WindowMinutes <= 0 {
		return fmt.Errorf("invalid rate limit: max_requests=%d window_minutes=%d", c.RateLimit.MaxRequests, c.RateLimit.WindowMinutes)
	}
	return nil
}
