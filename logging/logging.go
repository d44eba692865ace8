// Package logging provides the structured logger shared by the provisioning
// components. It wraps log/slog and defaults to a no-op logger so library
// callers stay silent unless they opt in.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

// Log levels, lowest first.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// Logger provides structured logging. The zero value and a nil *Logger
// discard everything.
type Logger struct {
	impl loggerImpl
}

// loggerImpl defines the internal interface for logger implementations.
type loggerImpl interface {
	debug(ctx context.Context, msg string, args ...any)
	info(ctx context.Context, msg string, args ...any)
	warn(ctx context.Context, msg string, args ...any)
	error(ctx context.Context, msg string, args ...any)
	with(args ...any) loggerImpl
}

// Debug logs debug-level messages
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l != nil && l.impl != nil {
		l.impl.debug(ctx, msg, args...)
	}
}

// Info logs info-level messages
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l != nil && l.impl != nil {
		l.impl.info(ctx, msg, args...)
	}
}

// Warn logs warning-level messages
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l != nil && l.impl != nil {
		l.impl.warn(ctx, msg, args...)
	}
}

// Error logs error-level messages
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	if l != nil && l.impl != nil {
		l.impl.error(ctx, msg, args...)
	}
}

// With returns a logger with additional context fields
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.impl == nil {
		return l
	}
	return &Logger{impl: l.impl.with(args...)}
}

// WithOperation returns a logger with operation context
func (l *Logger) WithOperation(op Operation) *Logger {
	return l.With("operation", string(op))
}

// WithRepository returns a logger with owner and repo context
func (l *Logger) WithRepository(owner, repo string) *Logger {
	return l.With("owner", owner, "repo", repo)
}

// WithIssue returns a logger with issue number context
func (l *Logger) WithIssue(number uint64) *Logger {
	return l.With("issue", number)
}

// LogConfig holds configuration for the logger.
type LogConfig struct {
	// Level sets the minimum log level
	Level LogLevel
	// EnableCallerInfo includes file and line number in logs
	EnableCallerInfo bool
	// Output receives log lines; defaults to os.Stderr
	Output io.Writer
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LogLevelWarn,
		Output: os.Stderr,
	}
}

// NewLogger creates a new structured logger with the given configuration.
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	})

	return &Logger{
		impl: &slogLogger{logger: slog.New(handler)},
	}
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{impl: nopLogger{}}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// slogLogger implements loggerImpl using slog.
type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) debug(ctx context.Context, msg string, args ...any) {
	l.logger.DebugContext(ctx, msg, args...)
}

func (l *slogLogger) info(ctx context.Context, msg string, args ...any) {
	l.logger.InfoContext(ctx, msg, args...)
}

func (l *slogLogger) warn(ctx context.Context, msg string, args ...any) {
	l.logger.WarnContext(ctx, msg, args...)
}

func (l *slogLogger) error(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

func (l *slogLogger) with(args ...any) loggerImpl {
	return &slogLogger{logger: l.logger.With(args...)}
}

// nopLogger discards all messages.
type nopLogger struct{}

func (nopLogger) debug(context.Context, string, ...any) {}
func (nopLogger) info(context.Context, string, ...any)  {}
func (nopLogger) warn(context.Context, string, ...any)  {}
func (nopLogger) error(context.Context, string, ...any) {}
func (n nopLogger) with(...any) loggerImpl              { return n }

// Operation names a provisioning step for logging.
type Operation string

// Operation constants
const (
	OpAcquire Operation = "acquire"
	OpClone   Operation = "clone"
	OpFetch   Operation = "fetch"
	OpLock    Operation = "lock"
	OpResolve Operation = "resolve"
	OpHook    Operation = "hook"
	OpLaunch  Operation = "launch"
)

// LogOperation logs the completion of an operation with its duration.
// Failures are logged at warn level.
func LogOperation(ctx context.Context, logger *Logger, op Operation, duration time.Duration, err error) {
	if logger == nil {
		return
	}

	fields := []any{
		"operation", string(op),
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		logger.Warn(ctx, "operation failed", fields...)
		return
	}
	logger.Debug(ctx, "operation completed", fields...)
}
