package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"foodbridge/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger sends GORM's output to slog. Failed and slow statements are
// always reported; every statement is reported in debug mode.
type queryLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
	slow   time.Duration
}

func newQueryLogger(base *slog.Logger, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	return &queryLogger{logger: base.With(slog.String("component", "kv-postgres")), level: level, slow: commitSlowThreshold}
}

func (l *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args...)
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args...)
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args...)
}

func (l *queryLogger) printf(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.level < min {
		return
	}

	l.logger.Log(ctx, level, fmt.Sprintf(msg, args...))
}

func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	var (
		level slog.Level
		msg   string
	)
	switch {
	// A missing key is a normal Load result.
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		level, msg = slog.LevelError, "Store statement failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "Slow store statement"
	case l.level >= logger.Info:
		level, msg = slog.LevelDebug, "Store statement"
	default:
		return
	}

	statement, rows := fc()
	attrs := []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", statement),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}

	l.logger.LogAttrs(ctx, level, msg, attrs...)
}
