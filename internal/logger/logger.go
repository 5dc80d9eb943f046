package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L is the global logger instance. It discards output until Init is called.
var L = slog.New(slog.NewTextHandler(io.Discard, nil))

type contextKey string

const loggerKey contextKey = "logger"

// Init initializes the global logger with a JSON handler writing to stdout.
// Call this once at startup, after loading config.
func Init(levelStr string) {
	InitWithWriter(os.Stdout, levelStr)
}

// InitWithWriter is Init with an explicit destination
func InitWithWriter(w io.Writer, levelStr string) {
	level, ok := ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL specified, defaulting to INFO", "configuredLevel", levelStr)
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	L = slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(L)
}

// ParseLevel maps a level name to a slog.Level; unknown names map to Info with ok false
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// FromContext retrieves a logger from context, or returns the global logger
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return L
}

// ToContext embeds a logger into a context
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
