package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/response"
)

// RateLimiter decides whether one more request from key is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisRateLimiter is a fixed-window limiter shared by every instance of the service.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	if limit <= 0 {
		limit = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: "rl:booking"}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, err
	}

	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		if count, err = strconv.ParseInt(v, 10, 64); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("unexpected redis script result type %T", res)
	}
	return count <= int64(l.limit), nil
}

// MemoryRateLimiter is a per-process token bucket per key, used when no
// Redis is configured. Idle keys are evicted.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func NewMemoryRateLimiter(perMinute int) *MemoryRateLimiter {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &MemoryRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](10000, nil, 10*time.Minute),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
	}
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters.Add(key, limiter)
	}
	l.mu.Unlock()

	return limiter.Allow(), nil
}

// RateLimit limits requests per client IP. Limiter errors let the request through.
func RateLimit(l RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
