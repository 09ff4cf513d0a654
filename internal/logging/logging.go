package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a deliberately small, framework-agnostic logging interface.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value any
}

// StdoutLogger is a structured logger that prints JSON lines to stdout.
// It implements Logger on top of slog's JSON handler.
type StdoutLogger struct {
	component string
	base      *slog.Logger
}

// NewStdoutLogger creates a StdoutLogger at info level. component is optional
// and is attached to every entry.
func NewStdoutLogger(component string) *StdoutLogger {
	return NewLogger(os.Stdout, component, "info")
}

// NewLogger creates a JSON logger writing to w with the given level name
// (debug, info, warn, error). Unknown levels fall back to info.
func NewLogger(w io.Writer, component, level string) *StdoutLogger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	base := slog.New(h)
	if component != "" {
		base = base.With(slog.String("component", component))
	}
	return &StdoutLogger{component: component, base: base}
}

// ParseLevel maps a level name onto a slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *StdoutLogger) log(level slog.Level, msg string, fields ...Field) {
	if !s.base.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			attrs = append(attrs, slog.String(f.Key, err.Error()))
			continue
		}
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	s.base.LogAttrs(context.Background(), level, msg, attrs...)
}

func (s *StdoutLogger) Debug(msg string, fields ...Field) {
	s.log(slog.LevelDebug, msg, fields...)
}

func (s *StdoutLogger) Info(msg string, fields ...Field) {
	s.log(slog.LevelInfo, msg, fields...)
}

func (s *StdoutLogger) Warn(msg string, fields ...Field) {
	s.log(slog.LevelWarn, msg, fields...)
}

func (s *StdoutLogger) Error(msg string, fields ...Field) {
	s.log(slog.LevelError, msg, fields...)
}

// With returns a child logger carrying the given fields on every entry. A
// "component" field replaces the component name.
func (s *StdoutLogger) With(fields ...Field) Logger {
	child := &StdoutLogger{component: s.component, base: s.base}
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		if f.Key == "component" {
			if str, ok := f.Value.(string); ok {
				child.component = str
			}
		}
		args = append(args, slog.Any(f.Key, f.Value))
	}
	if len(args) > 0 {
		child.base = s.base.With(args...)
	}
	return child
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...Field)  {}
func (NopLogger) Info(string, ...Field)   {}
func (NopLogger) Warn(string, ...Field)   {}
func (NopLogger) Error(string, ...Field)  {}
func (n NopLogger) With(...Field) Logger { return n }
