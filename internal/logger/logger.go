package logger

import (
	"log/slog"
	"os"
	"strings"
)

var Logger *slog.Logger

// Init configures the global logger. The level argument comes from
// config (output.log_level); the DEBUG env var forces debug logging.
func Init(level string) {
	lvl := parseLevel(level)
	if os.Getenv("DEBUG") == "true" {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: lvl,
	}

	Logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(Logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func Info(msg string, args ...any) {
	ensure()
	Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	ensure()
	Logger.Error(msg, args...)
}

func Debug(msg string, args ...any) {
	ensure()
	Logger.Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	ensure()
	Logger.Warn(msg, args...)
}

func ensure() {
	if Logger == nil {
		Init("info")
	}
}
