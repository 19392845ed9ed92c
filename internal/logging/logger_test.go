package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(level LogLevel, format string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	return &Logger{
		level:  level,
		format: format,
		output: buf,
		fields: make(map[string]interface{}),
	}, buf
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := testLogger(WarnLevel, "text")

	logger.Debug("not shown")
	logger.Info("not shown")
	logger.Warn("shown")
	logger.Error("also shown")

	out := buf.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "also shown")
}

func TestTextFormat(t *testing.T) {
	logger, buf := testLogger(DebugLevel, "text")

	logger.WithField("table", "orders").Infof("loaded %d rows", 42)

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "loaded 42 rows")
	assert.Contains(t, out, "table=orders")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := testLogger(DebugLevel, "json")

	logger.WithField("component", "agent").Warn("slow query")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "slow query", entry.Message)
	assert.Equal(t, "agent", entry.Fields["component"])
}

func TestWithErrorField(t *testing.T) {
	logger, buf := testLogger(DebugLevel, "text")

	logger.WithError(fmt.Errorf("boom")).Error("query failed")
	assert.Contains(t, buf.String(), "error=boom")

	// Nil errors add nothing.
	buf.Reset()
	logger.WithError(nil).Info("fine")
	assert.NotContains(t, buf.String(), "error=")
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent, buf := testLogger(DebugLevel, "text")
	child := parent.WithField("request_id", "r1")

	parent.Info("parent message")
	assert.NotContains(t, buf.String(), "request_id")

	buf.Reset()
	child.Info("child message")
	assert.Contains(t, buf.String(), "request_id=r1")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, InfoLevel, parseLogLevel("bogus"))
}

func TestLevelString(t *testing.T) {
	for level, want := range map[LogLevel]string{
		DebugLevel: "DEBUG",
		InfoLevel:  "INFO",
		WarnLevel:  "WARN",
		ErrorLevel: "ERROR",
	} {
		assert.Equal(t, want, level.String())
	}

	assert.True(t, strings.Contains(LogLevel(99).String(), "UNKNOWN"))
}
