package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// New builds the process logger. Text output goes through tint so the node's
// console stays readable; json is meant for the monitor running as a service.
func New(level, format, appName string) *slog.Logger {
	return newWithWriter(os.Stderr, level, format, appName)
}

func newWithWriter(w io.Writer, level, format, appName string) *slog.Logger {
	lvl := ParseLevel(level)
	if format == "json" {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
		return slog.New(h).With("app", appName)
	}

	h := tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", appName)
}

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
