// Package agentlog provides the host-pluggable structured logging
// contract used across the module: a small Logger interface and
// Field/F() shape any backend can implement, with a default
// implementation backed by github.com/rs/zerolog.
package agentlog

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors the configuration surface's logger.level enum.
type Level string

const (
	LevelFatal  Level = "fatal"
	LevelError  Level = "error"
	LevelWarn   Level = "warn"
	LevelInfo   Level = "info"
	LevelDebug  Level = "debug"
	LevelTrace  Level = "trace"
	LevelSilent Level = "silent"
)

func (l Level) zerologLevel() zerolog.Level {
	switch l {
	case LevelFatal:
		return zerolog.FatalLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelTrace:
		return zerolog.TraceLevel
	case LevelSilent:
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Field is a single structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger is the structured logging interface the rest of the module calls
// through. Implementations can wrap any backend (zerolog, zap, slog).
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// NoopLogger discards everything. It is the zero-overhead default.
type NoopLogger struct{}

func (NoopLogger) Debug(context.Context, string, ...Field) {}
func (NoopLogger) Info(context.Context, string, ...Field)  {}
func (NoopLogger) Warn(context.Context, string, ...Field)  {}
func (NoopLogger) Error(context.Context, string, ...Field) {}

// ZerologLogger implements Logger on top of zerolog.
type ZerologLogger struct {
	logger zerolog.Logger
	redact map[string]struct{}
}

// New creates a ZerologLogger writing to stderr at the given level.
// prettyPrint selects zerolog's human-readable console writer over the
// default JSON encoder; redact lists field keys whose values are replaced
// with "[REDACTED]" before being written.
func New(level Level, prettyPrint bool, redact []string) *ZerologLogger {
	writer := os.Stderr
	base := zerolog.New(writer)
	if prettyPrint {
		base = zerolog.New(zerolog.ConsoleWriter{Out: writer})
	}

	redactSet := make(map[string]struct{}, len(redact))
	for _, key := range redact {
		redactSet[key] = struct{}{}
	}

	return &ZerologLogger{
		logger: base.With().Timestamp().Logger().Level(level.zerologLevel()),
		redact: redactSet,
	}
}

func (l *ZerologLogger) event(level zerolog.Level) *zerolog.Event {
	switch level {
	case zerolog.DebugLevel:
		return l.logger.Debug()
	case zerolog.WarnLevel:
		return l.logger.Warn()
	case zerolog.ErrorLevel:
		return l.logger.Error()
	default:
		return l.logger.Info()
	}
}

func (l *ZerologLogger) withFields(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		if _, hidden := l.redact[f.Key]; hidden {
			e = e.Str(f.Key, "[REDACTED]")
			continue
		}
		e = e.Interface(f.Key, f.Value)
	}
	return e
}

func (l *ZerologLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.withFields(l.event(zerolog.DebugLevel), fields).Msg(msg)
}

func (l *ZerologLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.withFields(l.event(zerolog.InfoLevel), fields).Msg(msg)
}

func (l *ZerologLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.withFields(l.event(zerolog.WarnLevel), fields).Msg(msg)
}

func (l *ZerologLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.withFields(l.event(zerolog.ErrorLevel), fields).Msg(msg)
}
