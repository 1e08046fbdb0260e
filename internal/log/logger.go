package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/waveplan/internal/errors"
)

// Logger provides structured logging with slog
type Logger struct {
	slog   *slog.Logger
	config Config
}

// New creates a new Logger with the given configuration
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{
		Level:     config.Level.ToSlogLevel(),
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	switch config.Format {
	case FormatText:
		handler = slog.NewTextHandler(config.Output.Writer(), opts)
	default:
		handler = slog.NewJSONHandler(config.Output.Writer(), opts)
	}

	l := slog.New(handler)
	if config.ServiceName != "" {
		l = l.With("service", config.ServiceName)
	}

	return &Logger{
		slog:   l,
		config: config,
	}
}

// Default creates a logger with default configuration
func Default() *Logger {
	return New(DefaultConfig())
}

// Development creates a logger with development configuration
func Development() *Logger {
	return New(DevelopmentConfig())
}

// Discard returns a logger that drops everything. Library components fall
// back to it when the caller passes nil.
func Discard() *Logger {
	return &Logger{slog: slog.New(slog.DiscardHandler)}
}

// With returns a new Logger with the given attributes added to all log entries
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// WithGroup returns a new Logger with a group name that prefixes all attributes
func (l *Logger) WithGroup(name string) *Logger {
	return &Logger{
		slog:   l.slog.WithGroup(name),
		config: l.config,
	}
}

// WithSession tags every entry with a planning session ID.
func (l *Logger) WithSession(id string) *Logger {
	return l.With("session_id", id)
}

// WithError adds error details to the logger.
// A PlanError contributes its kind, code and offending unit IDs.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.With(errorArgs(err, "error")...)
}

// WithContext returns a new Logger carrying the trace and span IDs of the
// span active in ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.slog.DebugContext(ctx, msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// InfoContext logs an info message with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.slog.InfoContext(ctx, msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.slog.WarnContext(ctx, msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// ErrorContext logs an error message with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.slog.ErrorContext(ctx, msg, args...)
}

// LogError logs err at error level with its full PlanError details.
func (l *Logger) LogError(msg string, err error) {
	l.LogErrorContext(context.Background(), msg, err)
}

// LogErrorContext logs err at error level with its full PlanError details.
func (l *Logger) LogErrorContext(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}
	l.slog.ErrorContext(ctx, msg, errorArgs(err, "error_message")...)
}

func errorArgs(err error, messageKey string) []any {
	pe, ok := errors.As(err)
	if !ok {
		return []any{messageKey, err.Error()}
	}

	args := []any{
		messageKey, pe.Message,
		"error_kind", string(pe.Kind),
		"error_code", string(pe.Code),
	}
	if len(pe.OffendingIDs) > 0 {
		args = append(args, "offending_ids", pe.OffendingIDs)
	}
	if len(pe.Suggestions) > 0 {
		args = append(args, "suggestions", pe.Suggestions)
	}
	if pe.Cause != nil {
		args = append(args, "cause", pe.Cause.Error())
	}
	return args
}

// Enabled returns whether the logger is enabled for the given level
func (l *Logger) Enabled(ctx context.Context, level Level) bool {
	return l.slog.Enabled(ctx, level.ToSlogLevel())
}

// Handler returns the underlying slog.Handler
func (l *Logger) Handler() slog.Handler {
	return l.slog.Handler()
}

// Slog returns the underlying *slog.Logger for libraries that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}
