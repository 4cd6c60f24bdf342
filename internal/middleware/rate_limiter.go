package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Baaaki/role-admin/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Counting window
	BlockTime   time.Duration // How long a client stays blocked after exceeding the limit
}

// RateLimiter is a per-IP fixed window limiter backed by Redis. Each limiter
// has its own scope so login and registration are counted separately.
type RateLimiter struct {
	redis  *redis.Client
	scope  string
	config RateLimiterConfig
}

// NewRateLimiter creates a limiter whose keys live under "ratelimit:<scope>:".
func NewRateLimiter(redisClient *redis.Client, scope string, config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		scope:  scope,
		config: config,
	}
}

// Middleware returns a Gin middleware function for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := rl.CheckLimit(c.Request.Context(), clientIP)
		if err != nil {
			// fail open
			logger.Log.Warn("Rate limiter unavailable",
				zap.String("scope", rl.scope),
				zap.String("ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(retryAfter.Seconds())
			logger.Log.Warn("Rate limit exceeded",
				zap.String("scope", rl.scope),
				zap.String("ip", clientIP),
				zap.Int("retry_after", seconds),
			)
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"retry_after": seconds,
			})
			return
		}

		c.Next()
	}
}

// CheckLimit counts one request from ip. Once the count passes MaxRequests
// the ip is blocked for BlockTime (or the rest of the window when BlockTime is 0).
// Returns: (allowed bool, retryAfter duration, error)
func (rl *RateLimiter) CheckLimit(ctx context.Context, ip string) (bool, time.Duration, error) {
	blockKey := rl.key("block", ip)

	ttl, err := rl.redis.TTL(ctx, blockKey).Result()
	if err != nil {
		return false, 0, err
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	counterKey := rl.key("count", ip)
	count, err := rl.redis.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, counterKey, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count <= int64(rl.config.MaxRequests) {
		return true, 0, nil
	}

	if rl.config.BlockTime > 0 {
		if err := rl.redis.Set(ctx, blockKey, 1, rl.config.BlockTime).Err(); err != nil {
			return false, 0, err
		}
		return false, rl.config.BlockTime, nil
	}

	ttl, err = rl.redis.TTL(ctx, counterKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.config.Window
	}
	return false, ttl, nil
}

// Reset clears the counter and any block for ip.
func (rl *RateLimiter) Reset(ctx context.Context, ip string) error {
	return rl.redis.Del(ctx, rl.key("count", ip), rl.key("block", ip)).Err()
}

func (rl *RateLimiter) key(kind, ip string) string {
	return fmt.Sprintf("ratelimit:%s:%s:%s", rl.scope, kind, ip)
}
