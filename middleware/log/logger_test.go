package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Gopher0727/MessageBoard/config"
)

func newFileLogger(t *testing.T, level, format string) (*Logger, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "test.log")
	logger, err := NewLogger(&config.LoggingConfig{
		Level:    level,
		Format:   format,
		Output:   "file",
		FilePath: logFile,
	})
	require.NoError(t, err)
	return logger, logFile
}

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("creates logger with stdout output", func(t *testing.T) {
		logger, err := NewLogger(&config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"})
		require.NoError(t, err)
		require.NotNil(t, logger)
		logger.Info("test message")
		assert.NoError(t, logger.Close())
	})

	t.Run("fails when log file cannot be opened", func(t *testing.T) {
		_, err := NewLogger(&config.LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "file",
			FilePath: filepath.Join(t.TempDir(), "missing", "dir", "x.log"),
		})
		assert.Error(t, err)
	})

	t.Run("writes text format to file", func(t *testing.T) {
		logger, path := newFileLogger(t, "debug", "text")
		logger.Debug("console formatted")
		require.NoError(t, logger.Close())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "console formatted")
		assert.Contains(t, string(content), "debug")
	})
}

func TestJSONFormat(t *testing.T) {
	logger, path := newFileLogger(t, "info", "json")

	logger.Info("message created",
		zap.Uint("message_id", 7),
		zap.String("user_id", "u1"),
	)
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "message created", entries[0]["message"])
	assert.Equal(t, float64(7), entries[0]["message_id"])
	assert.Equal(t, "u1", entries[0]["user_id"])
	assert.NotEmpty(t, entries[0]["timestamp"])
}

func TestLogLevelFiltering(t *testing.T) {
	logger, path := newFileLogger(t, "warn", "json")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn message", entries[0]["message"])
	assert.Equal(t, "error message", entries[1]["message"])
}

func TestTraceIDInLogs(t *testing.T) {
	logger, path := newFileLogger(t, "info", "json")

	ctx := WithTraceID(context.Background(), "trace-abc-123")
	logger.InfoContext(ctx, "with trace")
	logger.InfoContext(context.Background(), "without trace")
	logger.WithFields(zap.String("component", "service")).WarnContext(ctx, "chained")
	require.NoError(t, logger.Close())

	entries := readEntries(t, path)
	require.Len(t, entries, 3)
	assert.Equal(t, "trace-abc-123", entries[0]["trace_id"])
	assert.NotContains(t, entries[1], "trace_id")
	assert.Equal(t, "trace-abc-123", entries[2]["trace_id"])
	assert.Equal(t, "service", entries[2]["component"])
}

func TestWithContext(t *testing.T) {
	logger := NewNop()

	t.Run("returns original logger when no trace ID in context", func(t *testing.T) {
		assert.Same(t, logger, logger.WithContext(context.Background()))
	})

	t.Run("returns child logger when trace ID present", func(t *testing.T) {
		child := logger.WithContext(WithTraceID(context.Background(), "abc"))
		assert.NotSame(t, logger, child)
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}
