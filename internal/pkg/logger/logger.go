package logger

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"pipedash/internal/pkg/config"
)

// Log 带调用位置的全局 logger，业务代码通过 Log.With(...) 追加字段
var Log *zap.Logger

// log 供包级 Info/Warn/... 使用，跳过一层调用栈
var log *zap.Logger

func init() {
	// 未调用 Init 时（例如单元测试）使用空 logger
	set(zap.NewNop())
}

func set(l *zap.Logger) {
	Log = l
	log = l.WithOptions(zap.AddCallerSkip(1))
}

// timeEncoder 2006-01-02 15:04:05.000
func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
}

// callerEncoder 只保留模块内路径，例如 internal/service/pipeline_sync_service.go:45
func callerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	if !caller.Defined {
		enc.AppendString("undefined")
		return
	}
	file := filepath.ToSlash(caller.File)
	for _, marker := range []string{"/internal/", "/pkg/", "/cmd/"} {
		if i := strings.LastIndex(file, marker); i >= 0 {
			enc.AppendString(file[i+1:] + ":" + strconv.Itoa(caller.Line))
			return
		}
	}
	enc.AppendString(caller.TrimmedPath())
}

// Init 初始化日志，service 会作为固定字段写入每条日志
func Init(cfg *config.LogConfig, service string) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       timeEncoder,
		EncodeDuration:   zapcore.MillisDurationEncoder,
		EncodeCaller:     callerEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	}

	var encoder zapcore.Encoder
	if cfg.Format == "json" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	sink, err := openSink(cfg)
	if err != nil {
		return err
	}

	l := zap.New(zapcore.NewCore(encoder, sink, level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if service != "" {
		l = l.With(zap.String("service", service))
	}
	set(l)
	return nil
}

// openSink stdout / file / both，文件由 lumberjack 切割
func openSink(cfg *config.LogConfig) (zapcore.WriteSyncer, error) {
	stdout := zapcore.Lock(os.Stdout)
	if cfg.FilePath == "" || (cfg.Output != "file" && cfg.Output != "both") {
		return stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, err
	}
	file := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	})
	if cfg.Output == "both" {
		return zapcore.NewMultiWriteSyncer(stdout, file), nil
	}
	return file, nil
}

// Named 组件 logger，例如 Named("scheduler")
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Close 刷新缓冲
func Close() error {
	return Log.Sync()
}

func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

// Fatal 记录后退出进程
func Fatal(msg string, fields ...zap.Field) {
	log.Fatal(msg, fields...)
}
