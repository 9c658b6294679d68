package security

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS 中间件 仅允许白名单中的Origin，支持Credentials
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if origin != "" && originSet[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Authorization, X-Request-ID, accept, origin")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Secure 中间件
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// KeyFunc 决定限流维度
type KeyFunc func(c *gin.Context) string

// ByClientIP 按客户端 IP 限流
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByUser 已认证请求按用户限流，否则回退到 IP
func ByUser(c *gin.Context) string {
	if v, ok := c.Get("user"); ok {
		if u, ok := v.(interface{ Subject() uint }); ok {
			return "user:" + strconv.FormatUint(uint64(u.Subject()), 10)
		}
	}
	return "ip:" + c.ClientIP()
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors 每个限流键一个令牌桶
type visitors struct {
	mu     sync.Mutex
	store  map[string]*visitor
	limit  rate.Limit
	burst  int
	expiry time.Duration
}

func newVisitors(maxRequests int, window time.Duration) *visitors {
	expiry := window * 3
	if expiry < time.Minute {
		expiry = time.Minute
	}
	return &visitors{
		store:  make(map[string]*visitor),
		limit:  rate.Every(window / time.Duration(maxRequests)),
		burst:  maxRequests,
		expiry: expiry,
	}
}

func (vs *visitors) allow(key string, now time.Time) bool {
	vs.mu.Lock()
	v, exists := vs.store[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(vs.limit, vs.burst)}
		vs.store[key] = v
	}
	v.lastSeen = now
	vs.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// sweep 删除超过 expiry 未出现的键
func (vs *visitors) sweep(now time.Time) {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	for k, v := range vs.store {
		if now.Sub(v.lastSeen) > vs.expiry {
			delete(vs.store, k)
		}
	}
}

func (vs *visitors) size() int {
	vs.mu.Lock()
	defer vs.mu.Unlock()
	return len(vs.store)
}

// run 定期清理，ctx 结束时返回
func (vs *visitors) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			vs.sweep(now)
		}
	}
}

// RateLimiter 令牌桶限流，清理协程随 ctx 退出
func RateLimiter(ctx context.Context, maxRequests int, window time.Duration, key KeyFunc) gin.HandlerFunc {
	vs := newVisitors(maxRequests, window)
	go vs.run(ctx, time.Minute)

	return func(c *gin.Context) {
		if !vs.allow(key(c), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "too many requests",
				"code":    "RATE_LIMITED",
			})
			return
		}

		c.Next()
	}
}
