// Package log owns the process-wide structured logger.
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

// Init builds the process logger. Call once at boot, before anything logs.
func Init(debug bool) error {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		return err
	}
	base = logger
	return nil
}

// L returns the process logger. Safe before Init: falls back to a no-op.
func L() *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// Session returns a child logger tagged with the session id.
func Session(id string) *zap.Logger {
	return L().With(zap.String("session_id", id))
}

// Error logs an error with context.
func Error(msg string, err error) {
	L().Error(msg, zap.Error(err))
}

// Fatal logs an error and exits the process.
func Fatal(msg string, err error) {
	L().Error(msg, zap.Error(err))
	Sync()
	os.Exit(1)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
