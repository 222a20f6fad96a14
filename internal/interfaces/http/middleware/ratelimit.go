package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"movie-gpt-api/internal/config"
	"movie-gpt-api/internal/interfaces/http/dto"
	"movie-gpt-api/pkg/errors"
	"movie-gpt-api/pkg/logger"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 按客户端 IP 与路由限流；限流器故障时放行
func RateLimit(cfg config.RateLimitConfig, limiter RateLimiter) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	// 窗口为 1 秒，burst 作为窗口内的上限
	limit := cfg.RequestsPerSecond
	if cfg.Burst > limit {
		limit = cfg.Burst
	}
	if limit <= 0 {
		limit = 10
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := "ratelimit:" + c.ClientIP() + ":" + route

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, time.Second)
		if err != nil {
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}
		if !allowed {
			dto.AbortWithAppError(c, errors.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
