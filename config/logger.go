package config

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger picks the handler from GO_ENV: JSON in production, colored pretty output for
// local development, plain text otherwise. LOG_LEVEL may be debug, info, warn or error.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env, os.Getenv("LOG_LEVEL"))
}

func newLogger(w io.Writer, env, levelName string) *slog.Logger {
	level := slog.LevelInfo
	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}

	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(w, opts))
	case "development", "local":
		return slog.New(NewPrettyHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}
