package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pipedash/internal/pkg/metrics"
)

// Metrics 记录请求数与耗时，path 使用路由模板避免标签膨胀
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPLatency.WithLabelValues(path, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}
