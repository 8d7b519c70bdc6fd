package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"
)

// DBLogger routes gorm's query log through the service logger so SQL
// shows up in the same stream, with the same handler, as everything else.
type DBLogger struct {
	Level         logger.LogLevel
	SlowThreshold time.Duration
}

// NewDBLogger creates a gorm logger. Queries slower than slowThreshold are
// logged at warn level; zero disables the slow query check.
func NewDBLogger(level logger.LogLevel, slowThreshold time.Duration) *DBLogger {
	return &DBLogger{Level: level, SlowThreshold: slowThreshold}
}

// LogMode returns a copy at the requested level, as gorm expects
func (l *DBLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

func (l *DBLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= logger.Info {
		Log.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *DBLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= logger.Warn {
		Log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *DBLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.Level >= logger.Error {
		Log.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement. Errors win over slowness, slowness
// over plain info.
func (l *DBLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.Level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	attrs := []any{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}

	switch {
	case err != nil && l.Level >= logger.Error:
		Log.Error("Query failed", append(attrs, slog.String("error", err.Error()))...)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= logger.Warn:
		Log.Warn("Slow query", attrs...)
	case l.Level >= logger.Info:
		Log.Info("Query", attrs...)
	}
}
