// Package logger provides the structured logger used by cmd/server, the
// REST middleware and the scheduler. The pipeline components (C6 upserts,
// C7 load close, C8 version close, C9 mapping writes, C11 audit rows) do
// not log through it.
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/config"
)

// Logger wraps slog.Logger so call sites never depend on the slog package
// directly — swapping the backend handler stays a one-file change.
type Logger struct {
	logger *slog.Logger
}

// New builds a Logger from cfg: JSON or text handler, level gated by
// cfg.Level, with source location attached only at debug level (the
// noisiest case, where it earns its cost).
func New(cfg config.LoggingConfig) *Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.Level == "debug",
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch level {
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

// With returns a Logger that always includes the given key/value pairs,
// the same chained-attribute style used for lineage fields throughout the
// pipeline (e.g. `log.With("load_id", id, "row_id", rowID)`).
func (l *Logger) With(args ...interface{}) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// lineageKey is the context key type for the load/row/taxonomy triple
// that identifies where in the pipeline a log line originated — the same
// ids every BronzeRow, Node and NodeAttribute carries as lineage (§3).
type lineageKey struct{}

// Lineage is the load/row/taxonomy identifiers a pipeline operation is
// scoped to. Any field may be zero if not yet known at the call site
// (e.g. TaxonomyID before the load's target taxonomy is resolved).
type Lineage struct {
	LoadID     int64
	RowID      int64
	TaxonomyID int64
}

// ContextWithLineage attaches lineage to ctx so every logger derived via
// WithContext downstream (coordinator -> ingest engine -> hierarchy
// store) carries it without threading it through every function
// signature.
func ContextWithLineage(ctx context.Context, l Lineage) context.Context {
	return context.WithValue(ctx, lineageKey{}, l)
}

// LineageFromContext returns the lineage attached to ctx, if any.
func LineageFromContext(ctx context.Context) (Lineage, bool) {
	l, ok := ctx.Value(lineageKey{}).(Lineage)
	return l, ok
}

// WithContext returns a Logger carrying ctx's lineage fields (load_id,
// row_id, taxonomy_id) as attributes, omitting any that are zero. A
// context with no lineage attached returns l unchanged.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	lin, ok := LineageFromContext(ctx)
	if !ok {
		return l
	}
	var args []interface{}
	if lin.LoadID != 0 {
		args = append(args, "load_id", lin.LoadID)
	}
	if lin.RowID != 0 {
		args = append(args, "row_id", lin.RowID)
	}
	if lin.TaxonomyID != 0 {
		args = append(args, "taxonomy_id", lin.TaxonomyID)
	}
	if len(args) == 0 {
		return l
	}
	return l.With(args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.logger.Error(msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).logger.DebugContext(ctx, msg, args...)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).logger.InfoContext(ctx, msg, args...)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).logger.WarnContext(ctx, msg, args...)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...interface{}) {
	l.WithContext(ctx).logger.ErrorContext(ctx, msg, args...)
}

// defaultLogger backs the package-level convenience functions used by
// code that has no Logger instance wired in yet (init-time failures,
// cmd/server bootstrap before config is fully loaded).
var defaultLogger = New(config.LoggingConfig{Level: "info", Format: "json"})

// Default returns the package-level logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the package-level logger, called once cmd/server
// has built the configured one.
func SetDefault(l *Logger) { defaultLogger = l }

func Debug(msg string, args ...interface{}) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...interface{})  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...interface{})  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...interface{}) { defaultLogger.Error(msg, args...) }
