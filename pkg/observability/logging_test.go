package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{name: "debug level", input: "debug", expected: slog.LevelDebug},
		{name: "info level", input: "info", expected: slog.LevelInfo},
		{name: "warn level", input: "warn", expected: slog.LevelWarn},
		{name: "warning level", input: "warning", expected: slog.LevelWarn},
		{name: "error level", input: "error", expected: slog.LevelError},
		{name: "uppercase DEBUG", input: "DEBUG", expected: slog.LevelDebug},
		{name: "mixed case Info", input: "Info", expected: slog.LevelInfo},
		{name: "empty string defaults to info", input: "", expected: slog.LevelInfo},
		{name: "unknown level defaults to info", input: "verbose", expected: slog.LevelInfo},
		{name: "offset level", input: "debug+2", expected: slog.LevelDebug + 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestInitLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Level: "info", Format: "json", Service: "eligibility-service", Output: &buf})

	logger.Debug("suppressed")
	logger.Info("evaluation recorded", "decision", "APPROVED")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), "exactly one JSON record is written")
	assert.Equal(t, "evaluation recorded", record["msg"])
	assert.Equal(t, "eligibility-service", record["service"])
	assert.Equal(t, "APPROVED", record["decision"])
}

func TestInitLogger_TextByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Level: "warn", Output: &buf})

	logger.Info("dropped")
	logger.Warn("cache unavailable")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `msg="cache unavailable"`)
}

func TestInitLogger_SetsDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Format: "json", Output: &buf})

	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestInitLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := InitLogger(LogConfig{Format: "json", Output: &buf}).WithGroup("req")

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0xaa, 1},
		SpanID:  trace.SpanID{0xbb, 2},
	})
	logger.InfoContext(trace.ContextWithSpanContext(context.Background(), sc), "evaluated")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	group, ok := record["req"].(map[string]any)
	require.True(t, ok, "attributes added after WithGroup land in the group")
	assert.Equal(t, sc.TraceID().String(), group["trace_id"])
	assert.Equal(t, sc.SpanID().String(), group["span_id"])

	buf.Reset()
	logger.Info("no span")
	assert.NotContains(t, buf.String(), "trace_id")
}
