package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GormWriter 实现 gorm logger.Writer，SQL 日志写入 "gorm" 组件
// 级别过滤由 gorm 的 LogLevel 决定，消息自带调用位置
type GormWriter struct{}

func (GormWriter) Printf(format string, args ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	Log.Named("gorm").WithOptions(zap.WithCaller(false)).Info(msg)
}

// GetWriter 每次调用都读取当前 Log，Init 之后创建的 gorm 连接即可生效
func GetWriter() GormWriter {
	return GormWriter{}
}
