package ygggo_mysql_pool

import (
	"context"
	"log/slog"
	"os"
	"time"
)

var defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// EnableLogging enables or disables structured logging for this manager.
func (m *PoolManager) EnableLogging(enabled bool) {
	if m == nil {
		return
	}
	m.loggingEnabled = enabled
	if enabled && m.logger == nil {
		m.logger = defaultLogger
	}
}

// SetLogger sets a custom logger for this manager.
func (m *PoolManager) SetLogger(logger *slog.Logger) {
	if m == nil {
		return
	}
	m.logger = logger
}

// logAcquire logs one acquire attempt with structured fields.
func (m *PoolManager) logAcquire(ctx context.Context, key TargetKey, duration time.Duration, err error) {
	if m == nil || !m.loggingEnabled || m.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("event", "acquire"),
		slog.String("target", key.String()),
		slog.Float64("duration_ms", float64(duration.Nanoseconds())/1e6),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("status", "error"),
			slog.String("error", err.Error()),
		)
		m.logger.LogAttrs(ctx, slog.LevelError, "pool acquire", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "success"))
	m.logger.LogAttrs(ctx, slog.LevelDebug, "pool acquire", attrs...)
}

// logRelease logs the outcome of one release. Cleanup failures surface only
// here and in the outcome value; they never propagate.
func (m *PoolManager) logRelease(key TargetKey, outcome ReleaseOutcome, held time.Duration, callerErr error) {
	if m == nil || !m.loggingEnabled || m.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("event", "release"),
		slog.String("target", key.String()),
		slog.String("outcome", outcome.String()),
		slog.Float64("held_ms", float64(held.Nanoseconds())/1e6),
		slog.Bool("caller_failed", callerErr != nil),
	}
	level := slog.LevelDebug
	if outcome != OutcomeRecycled {
		level = slog.LevelInfo
	}
	m.logger.LogAttrs(context.Background(), level, "pool release", attrs...)
}

func (m *PoolManager) logDiscard(key TargetKey, reason string) {
	if m == nil || !m.loggingEnabled || m.logger == nil {
		return
	}
	m.logger.LogAttrs(context.Background(), slog.LevelInfo, "connection discarded",
		slog.String("target", key.String()),
		slog.String("reason", reason),
	)
}
