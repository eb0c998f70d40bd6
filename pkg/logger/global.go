package logger

import (
	"context"

	"go.uber.org/zap"
)

var globalLogger Logger = NewZap(zap.NewNop())

// SetGlobalLogger replace the process-wide logger.
// Call this once during boot, before any goroutine logs.
func SetGlobalLogger(l Logger) {
	if l == nil {
		return
	}

	globalLogger = l
}

func Debug(ctx context.Context, msg string, fields ...KeyValue) {
	globalLogger.Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...KeyValue) {
	globalLogger.Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...KeyValue) {
	globalLogger.Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...KeyValue) {
	globalLogger.Error(ctx, msg, fields...)
}

func Access(ctx context.Context, data AccessLogData) {
	globalLogger.Access(ctx, data)
}
