package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	return entry
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelInfo, FormatJSON, &buf)

	logger.WithFields(map[string]interface{}{
		"address": "0xabc",
		"wallets": 3,
	}).Info("profiled cohort")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "profiled cohort", entry["message"])
	assert.Equal(t, "0xabc", entry["address"])
	assert.EqualValues(t, 3, entry["wallets"])
	assert.Contains(t, entry, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelWarn, FormatJSON, &buf)

	logger.Info("dropped")
	logger.Debugf("dropped %d", 1)
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")

	buf.Reset()
	quiet := NewLoggerWithOutput(LevelError, FormatJSON, &buf)
	quiet.Warn("dropped below error")
	assert.Empty(t, buf.String())
}

func TestLogger_WithErrorAndCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelDebug, FormatJSON, &buf)

	logger.WithError(errors.New("connection reset")).Error("cache write failed")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "connection reset", entry["error"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithOutput(LevelInfo, FormatJSON, &buf)
	_ = parent.WithField("component", "profiler")

	parent.Info("parent message")
	entry := decodeLine(t, &buf)
	assert.NotContains(t, entry, "component")
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelInfo, FormatText, &buf)

	logger.WithField("protocol", "Uniswap").Info("signal emitted")

	out := buf.String()
	assert.Contains(t, out, "signal emitted")
	assert.Contains(t, out, "protocol=Uniswap")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LevelInfo, FormatJSON, &buf)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}

func TestParseLogLevelAndFormat(t *testing.T) {
	assert.Equal(t, LevelWarn, ParseLogLevel("warning"))
	assert.Equal(t, LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLogLevel("verbose"))
	assert.Equal(t, FormatText, ParseLogFormat("text"))
	assert.Equal(t, FormatJSON, ParseLogFormat("yaml"))
}
