package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConfig configures NewZap.
type ZapConfig struct {
	// Level is one of debug, info, warn, error.
	Level string
	// File is an optional path; entries go to stderr when empty.
	File string
}

// ZapLogger implements Logger on top of zap.
type ZapLogger struct {
	logger *zap.Logger
}

// Compile-time interface check.
var _ Logger = (*ZapLogger)(nil)

// NewZap builds a JSON zap logger from cfg.
func NewZap(cfg ZapConfig) (*ZapLogger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(levelToZap(lvl))
	zc.DisableStacktrace = true
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	built, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &ZapLogger{logger: built}, nil
}

// NewZapFromCore wraps an existing zap core, e.g. an observer in tests.
func NewZapFromCore(core zapcore.Core) *ZapLogger {
	return &ZapLogger{logger: zap.New(core)}
}

func (l *ZapLogger) must() *zap.Logger {
	if l == nil || l.logger == nil {
		return zap.NewNop()
	}
	return l.logger
}

// Log dispatches to the zap method of the matching level.
func (l *ZapLogger) Log(_ context.Context, level Level, msg string, fields ...Field) {
	zf := fieldsToZap(fields)
	switch level {
	case LevelDebug:
		l.must().Debug(msg, zf...)
	case LevelWarn:
		l.must().Warn(msg, zf...)
	case LevelError:
		l.must().Error(msg, zf...)
	default:
		l.must().Info(msg, zf...)
	}
}

// With returns a child logger carrying fields.
func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: l.must().With(fieldsToZap(fields)...)}
}

// Enabled reports whether level would be emitted.
func (l *ZapLogger) Enabled(level Level) bool {
	return l.must().Core().Enabled(levelToZap(level))
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.must().Sync()
}

func levelToZap(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func fieldsToZap(fields []Field) []zap.Field {
	zf := make([]zap.Field, len(fields))
	for i, f := range fields {
		if err, ok := f.Value.(error); ok {
			zf[i] = zap.NamedError(f.Key, err)
			continue
		}
		zf[i] = zap.Any(f.Key, f.Value)
	}
	return zf
}
