// Package logger wraps slog with the defaults the tuition service runs
// with: JSON output in production, readable text everywhere else. The
// minimum level can be changed through LOG_LEVEL without a rebuild.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Log is the process-wide logger. It starts as a plain text logger so
// anything emitted before Setup (config loading, early failures) is not
// lost.
var Log = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Setup replaces the process-wide logger for the given environment and
// installs it as the slog default.
func Setup(env string) {
	opts := &slog.HandlerOptions{Level: levelFromEnv()}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	Log = slog.New(handler)
	slog.SetDefault(Log)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Log.Debug(msg, args...)
}

// Info logs at info level
func Info(msg string, args ...any) {
	Log.Info(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Log.Warn(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Log.Error(msg, args...)
}
