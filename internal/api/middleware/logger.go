package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pipedash/internal/pkg/logger"
	"pipedash/pkg/constants"
)

// LoggerMiddleware 访问日志
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)

		fields := []zap.Field{
			zap.String("request_id", c.GetString(constants.ContextKeyRequestID)),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
		}
		if userID := c.GetInt64(constants.ContextKeyUserID); userID > 0 {
			fields = append(fields, zap.Int64("user_id", userID))
		}

		// webhook 回调频繁，只记 debug
		msg := fmt.Sprintf("%s %s %s %v %.2fs %v", c.Request.Proto, c.Request.Method, path, c.Writer.Status(), cost.Seconds(), query)
		if path == constants.WebhookPath && c.Writer.Status() < 400 {
			logger.Debug(msg, fields...)
			return
		}
		logger.Info(msg, fields...)
	}
}
