// Package logger provides structured, leveled logging on top of zerolog.
package logger

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// Level is a logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// LoggerInterface is the narrow capability every component depends on.
// Components take this interface, never the concrete *Logger, so tests
// can supply an in-memory fake.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, kv ...any)
	Info(ctx context.Context, msg string, kv ...any)
	Warn(ctx context.Context, msg string, kv ...any)
	Error(ctx context.Context, msg string, kv ...any)
	With(kv ...any) LoggerInterface
}

// Logger is the zerolog-backed implementation of LoggerInterface.
type Logger struct {
	zl zerolog.Logger
}

// New creates a Logger writing to w at the given level. appName is attached
// to every record; fields are additional static key-values attached once.
func New(w io.Writer, level Level, appName string, fields map[string]any) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	ctx := zerolog.New(w).With().Timestamp().Str("app", appName)
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	zl := ctx.Logger().Level(level.zerologLevel())
	return &Logger{zl: zl}
}

func (l *Logger) event(level zerolog.Level, ctx context.Context, msg string, kv []any) {
	ev := l.zl.WithLevel(level)
	if traceID := traceIDFromContext(ctx); traceID != "" {
		ev = ev.Str("trace_id", traceID)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

func (l *Logger) Debug(ctx context.Context, msg string, kv ...any) {
	l.event(zerolog.DebugLevel, ctx, msg, kv)
}

func (l *Logger) Info(ctx context.Context, msg string, kv ...any) {
	l.event(zerolog.InfoLevel, ctx, msg, kv)
}

func (l *Logger) Warn(ctx context.Context, msg string, kv ...any) {
	l.event(zerolog.WarnLevel, ctx, msg, kv)
}

func (l *Logger) Error(ctx context.Context, msg string, kv ...any) {
	l.event(zerolog.ErrorLevel, ctx, msg, kv)
}

// With returns a child logger with static key-values attached to every record.
func (l *Logger) With(kv ...any) LoggerInterface {
	lc := l.zl.With()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		lc = lc.Interface(key, kv[i+1])
	}
	return &Logger{zl: lc.Logger()}
}

type traceIDKey struct{}

// ContextWithTraceID attaches a trace ID that subsequent log calls on this
// context will carry automatically.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func traceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(traceIDKey{}).(string)
	return v
}
