// Package log wraps slog with a component attribute so every subsystem
// (bus, saga, projections, worker) tags its own output.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with a component name attached to every record.
type Logger struct {
	*slog.Logger
	component string
}

// New creates a logger writing text records to stdout at the given level.
func New(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler), component: ComponentApp}
}

// NewWithHandler creates a logger on an explicit handler, used by tests.
func NewWithHandler(handler slog.Handler) *Logger {
	return &Logger{Logger: slog.New(handler), component: ComponentApp}
}

// With returns a new logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent returns a new logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger, component: component}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Logger.Debug(msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Logger.Info(msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.Logger.Warn(msg, append([]any{FieldComponent, l.component}, args...)...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.Logger.Error(msg, append([]any{FieldComponent, l.component}, args...)...)
}

// SetDefault installs the logger as the process-wide slog default.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
