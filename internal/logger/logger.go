// Package logger provides the structured logging interface used across the
// service, backed by zap.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface injected into every component. Args are
// alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	With(args ...any) Logger
	Sync() error
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// New builds a production JSON logger at the given level ("debug", "info",
// "warn", "error"); unknown levels fall back to info.
func New(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: z.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }
func (l *zapLogger) Fatal(msg string, args ...any) { l.sugar.Fatalw(msg, args...) }

func (l *zapLogger) With(args ...any) Logger {
	return &zapLogger{sugar: l.sugar.With(args...)}
}

func (l *zapLogger) Sync() error {
	return l.sugar.Sync()
}
