// Package logger provides the process-wide structured logger built on Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "budgeting-api"

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init builds the global logger for env. "production" logs JSON with ISO8601
// timestamps at info level, "test" discards everything, and any other value
// gets the colored development console.
func Init(env string) {
	once.Do(func() {
		sugar = build(env).Sugar().With("service", serviceName)
	})
}

func build(env string) *zap.Logger {
	var (
		base *zap.Logger
		err  error
	)
	switch env {
	case "production":
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		base, err = cfg.Build()
	case "test":
		return zap.NewNop()
	default:
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		base, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return base
}

// Get returns the global logger, initializing a development logger when
// Init was never called.
func Get() *zap.SugaredLogger {
	Init("development")
	return sugar
}

// With returns a child logger carrying the given key-value pairs.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	return Get().With(keysAndValues...)
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
