package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/config"
)

func TestMavenHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, nil)).With("system", "api")

	logger.Info("Receipt processed", "receipt_id", "abc", "items", 3)

	line := buf.String()
	assert.True(t, strings.HasPrefix(line, "[INFO] [api] ["), line)
	assert.Contains(t, line, "Receipt processed receipt_id=abc items=3")
	assert.NotContains(t, line, "system=")
	assert.NotContains(t, line, "\033[")
}

func TestMavenHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestMavenHandler_GroupsAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMavenHandler(&buf, nil))

	logger.WithGroup("split").Info("done",
		"user", "María José",
		slog.Group("tax", slog.Bool("excluded", true)))

	line := buf.String()
	assert.Contains(t, line, `split.user="María José"`)
	assert.Contains(t, line, "split.tax.excluded=true")
}

func TestNewLoggerTo_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, config.LoggingConfig{Level: "debug", Format: "json"})

		logger.Debug("hello", "k", "v")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "v", entry["k"])
	})

	t.Run("tint", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, config.LoggingConfig{Format: "tint"})

		logger.Info("hello", "k", "v")

		assert.Contains(t, buf.String(), "hello")
		assert.Contains(t, buf.String(), "k=v")
	})

	t.Run("maven default", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLoggerTo(&buf, config.LoggingConfig{Format: "maven"})

		logger.Info("hello")

		assert.True(t, strings.HasPrefix(buf.String(), "[INFO]"))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
