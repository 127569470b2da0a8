package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_AllLevelsAndFormats(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown", ""} {
		for _, format := range []string{"json", "text"} {
			l := New(config.LoggingConfig{Level: level, Format: format})
			assert.NotNil(t, l)
			assert.NotNil(t, l.logger)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	for level := range cases {
		assert.NotPanics(t, func() { parseLevel(level) })
	}
}

func TestLogger_With_Chaining(t *testing.T) {
	base := New(config.LoggingConfig{Level: "info", Format: "json"})
	l1 := base.With("load_id", int64(1))
	l2 := l1.With("row_id", int64(2))

	assert.NotEqual(t, base, l1)
	assert.NotEqual(t, l1, l2)
}

func TestLogger_WithContext_NoLineage_ReturnsSameLogger(t *testing.T) {
	base := New(config.LoggingConfig{Level: "info", Format: "json"})

	scoped := base.WithContext(context.Background())
	assert.Equal(t, base, scoped)
}

func TestLogger_WithContext_AttachesLineageFields(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf, "info", "json")

	ctx := ContextWithLineage(context.Background(), Lineage{LoadID: 42, RowID: 7, TaxonomyID: 3})
	base.WithContext(ctx).Info("row processed")

	var logged map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, float64(42), logged["load_id"])
	assert.Equal(t, float64(7), logged["row_id"])
	assert.Equal(t, float64(3), logged["taxonomy_id"])
}

func TestLogger_WithContext_OmitsZeroFields(t *testing.T) {
	var buf bytes.Buffer
	base := newTestLogger(&buf, "info", "json")

	ctx := ContextWithLineage(context.Background(), Lineage{LoadID: 42})
	base.WithContext(ctx).Info("load opened")

	var logged map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, float64(42), logged["load_id"])
	_, hasRowID := logged["row_id"]
	assert.False(t, hasRowID)
}

func TestLineageFromContext_AbsentReturnsFalse(t *testing.T) {
	_, ok := LineageFromContext(context.Background())
	assert.False(t, ok)
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "warn", "json")

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestLogger_ContextMethods_CarryLineage(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "debug", "json")
	ctx := ContextWithLineage(context.Background(), Lineage{LoadID: 9})

	l.DebugContext(ctx, "debug")
	l.InfoContext(ctx, "info")
	l.WarnContext(ctx, "warn")
	l.ErrorContext(ctx, "error")

	for _, line := range []string{"debug", "info", "warn", "error"} {
		assert.Contains(t, buf.String(), line)
	}
	assert.Contains(t, buf.String(), `"load_id":9`)
}

func TestLogger_JSONFormat_ValidJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info", "json")

	l.Info("node upserted", "node_id", int64(100), "active", true)

	var logged map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logged))
	assert.Equal(t, "INFO", logged["level"])
	assert.Equal(t, "node upserted", logged["msg"])
	assert.Equal(t, float64(100), logged["node_id"])
	assert.Equal(t, true, logged["active"])
}

func TestLogger_TextFormat_Output(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, "info", "text")

	l.Info("node upserted", "node_id", int64(100))

	output := buf.String()
	assert.Contains(t, output, "node upserted")
	assert.Contains(t, output, "node_id=100")
}

func TestDefaultAndSetDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	replacement := New(config.LoggingConfig{Level: "debug", Format: "text"})
	SetDefault(replacement)
	assert.Equal(t, replacement, Default())
}

func TestGlobalLoggingFunctionsDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("global debug")
		Info("global info")
		Warn("global warn")
		Error("global error")
	})
}

func newTestLogger(buf *bytes.Buffer, level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level), AddSource: level == "debug"}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(buf, opts)
	} else {
		handler = slog.NewTextHandler(buf, opts)
	}
	return &Logger{logger: slog.New(handler)}
}
