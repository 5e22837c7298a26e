// Package logger is a thin log/slog wrapper with a process-wide logger and
// request-scoped loggers carried in a context.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type ctxKey struct{}

// Init replaces the global logger. Unknown levels fall back to info; debug
// also records the call site.
func Init(level string, json bool) {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl, AddSource: lvl <= slog.LevelDebug}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if json {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(h).With("service", "crypto_invest")
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func Get() *slog.Logger { return defaultLogger }

// NewContext attaches l to ctx; WithContext retrieves it.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// WithContext returns the request logger in ctx, or the global logger.
func WithContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return defaultLogger
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// Fatal logs at error level and exits the process.
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}

func With(args ...any) *slog.Logger { return defaultLogger.With(args...) }
