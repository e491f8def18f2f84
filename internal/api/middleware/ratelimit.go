package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"pipedash/internal/pkg/logger"
	pkgErrors "pipedash/pkg/errors"
	"pipedash/pkg/utils"
)

// RateLimit 全局令牌桶，rps <= 0 时不限流
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = int(rps) + 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			logger.Log.Sugar().Warnf("请求被限流: %s %s", c.Request.Method, c.Request.URL.Path)
			utils.AbortWithStatus(c, http.StatusTooManyRequests, pkgErrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
