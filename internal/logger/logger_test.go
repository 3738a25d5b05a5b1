package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{zlog: zerolog.New(buf).With().Timestamp().Logger()}
}

func TestNewWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Info("farm created", map[string]interface{}{"farm_id": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "expected JSON output")
	assert.Equal(t, "farm created", entry["message"])
	assert.Equal(t, float64(7), entry["farm_id"])
}

func TestNewWithWriter_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.Debug("debug visible in development", nil)

	output := buf.String()
	assert.Contains(t, output, "debug visible in development")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(output), "{"), "console output is not JSON")
}

func TestNewWithWriter_ProductionSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	log.Debug("hidden", nil)
	assert.Empty(t, buf.String())
}

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.Debug("debug message", map[string]interface{}{"key1": "value1"})
	log.Info("info message", map[string]interface{}{"user": "grower@example.com"})
	log.Warn("warning message", map[string]interface{}{"warning_type": "stale_snapshot"})

	output := buf.String()
	for _, want := range []string{"debug message", "value1", "info message", "grower@example.com", "warning message", "stale_snapshot"} {
		assert.Contains(t, output, want)
	}
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.Error("upload failed", errors.New("connection reset"), map[string]interface{}{
		"blob_key": "abc",
	})

	output := buf.String()
	assert.Contains(t, output, "upload failed")
	assert.Contains(t, output, "connection reset")
	assert.Contains(t, output, "abc")
}

func TestWithAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	child := log.With(map[string]interface{}{"version": "1.0"}).WithComponent("farms")
	child.Info("test message", nil)

	output := buf.String()
	assert.Contains(t, output, `"component":"farms"`)
	assert.Contains(t, output, `"version":"1.0"`)
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.WithRequestID("req-12345").Info("request received", nil)

	output := buf.String()
	assert.Contains(t, output, "req-12345")
	assert.Contains(t, output, "request_id")
}

func TestNop(t *testing.T) {
	log := Nop()
	require.NotNil(t, log.GetZerolog())
	// Must not panic
	log.Info("discarded", map[string]interface{}{"k": "v"})
}

func TestNilFields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.Info("message with nil fields", nil)
	assert.Contains(t, buf.String(), "message with nil fields")
}
