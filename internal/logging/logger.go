package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger writes one JSON object per line. Printf-style and field-style calls
// share the same level filter.
type Logger struct {
	level  Level
	logger *slog.Logger
}

func NewLogger(levelStr string) *Logger {
	return NewLoggerWithWriter(levelStr, os.Stdout)
}

func NewLoggerWithWriter(levelStr string, w io.Writer) *Logger {
	level := parseLevel(levelStr)
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       toSlog(level),
		ReplaceAttr: lowerLevel,
	})
	return &Logger{level: level, logger: slog.New(h)}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewLoggerWithWriter("error", io.Discard)
}

func parseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toSlog(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func lowerLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(strings.ToLower(lvl.String()))
		}
	}
	return a
}

// WithComponent returns a child logger that tags every record with component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{level: l.level, logger: l.logger.With("component", name)}
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{level: l.level, logger: l.logger.With(attrs(fields)...)}
}

func (l *Logger) Enabled(level Level) bool {
	return l.level <= level
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Debugw(msg string, fields map[string]any) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Infow(msg string, fields map[string]any)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warnw(msg string, fields map[string]any)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Errorw(msg string, fields map[string]any) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields map[string]any) {
	if !l.Enabled(level) {
		return
	}
	l.logger.LogAttrs(context.Background(), toSlog(level), msg, toAttrs(fields)...)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields))
	for _, a := range toAttrs(fields) {
		out = append(out, a)
	}
	return out
}

func toAttrs(fields map[string]any) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	out := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
