package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/harentsoaR/complaint-api/internal/apperrors"
	"github.com/harentsoaR/complaint-api/internal/ratelimit"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"go.uber.org/zap"
)

// RateLimit limits requests per client IP and route. Limiter failures let
// the request through.
func RateLimit(l ratelimit.Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeouts.Ping())
		allowed, err := l.Allow(ctx, key)
		cancel()
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			abort(c, apperrors.TooManyRequests())
			return
		}
		c.Next()
	}
}
