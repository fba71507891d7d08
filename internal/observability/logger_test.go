package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with json format", func(t *testing.T) {
		cfg := LoggingConfig{Level: "info", Format: "json", Output: "stdout", TimeFormat: time.RFC3339}
		logger := NewLogger(cfg)

		// Logger should be valid (non-zero)
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with debug level", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "debug",
			Format: "json",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		// Debug level should be enabled
		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with console format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})

	t.Run("creates logger with pretty format", func(t *testing.T) {
		cfg := LoggingConfig{
			Level:  "info",
			Format: "pretty",
			Output: "stderr",
		}
		logger := NewLogger(cfg)

		assert.NotEqual(t, zerolog.Logger{}, logger)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"TRACE", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"FATAL", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"PANIC", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseLevel(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewLoggerTo(t *testing.T) {
	t.Run("writes json with timestamp", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "info", Format: "json"}, &buf)

		logger.Info().Str("component", "test").Msg("hello")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["message"])
		assert.Equal(t, "test", entry["component"])
		assert.Contains(t, entry, "time")
	})

	t.Run("filters below configured level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "warn", Format: "json"}, &buf)

		logger.Info().Msg("dropped")
		assert.Empty(t, buf.String())

		logger.Warn().Msg("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("console format is not json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(LoggingConfig{Level: "info", Format: "console"}, &buf)

		logger.Info().Msg("plain")
		assert.Contains(t, buf.String(), "plain")
		assert.False(t, json.Valid(buf.Bytes()))
	})

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

func TestWithRequestContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithRequestContext(logger, "req-123", "corr-456")
	enriched.Info().Msg("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "req-123", logEntry["request_id"])
	assert.Equal(t, "corr-456", logEntry["correlation_id"])
	assert.Equal(t, "test message", logEntry["message"])
}

func TestWithEntityContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	entityLogger := WithEntityContext(logger, "works", "W2741809807")
	entityLogger.Info().Msg("rendered")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "works", logEntry["entity"])
	assert.Equal(t, "W2741809807", logEntry["entity_id"])
}

func TestWithUpstreamContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	upstreamLogger := WithUpstreamContext(logger, "authors", "/authors/A1")
	upstreamLogger.Warn().Msg("upstream failed")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "authors", logEntry["entity"])
	assert.Equal(t, "/authors/A1", logEntry["upstream_path"])
	assert.Equal(t, "warn", logEntry["level"])
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	logger = WithRequestContext(logger, "req-1", "corr-1")
	logger = WithEntityContext(logger, "sources", "S1")
	logger.Info().Msg("chained")

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logEntry))
	assert.Equal(t, "req-1", logEntry["request_id"])
	assert.Equal(t, "corr-1", logEntry["correlation_id"])
	assert.Equal(t, "sources", logEntry["entity"])
	assert.Equal(t, "S1", logEntry["entity_id"])
}
