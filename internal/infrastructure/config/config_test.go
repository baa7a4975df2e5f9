package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_AppliesDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
ocr:
  provider: openai
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.OCR.Provider)
	assert.Equal(t, "es", cfg.OCR.Language)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Durations(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
  database_path: receipts.db
  ttl: 2h
  sweep_interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, 30*time.Second, cfg.Storage.SweepInterval)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown provider", "ocr:\n  provider: gemini\n"},
		{"unknown driver", "storage:\n  driver: postgres\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"not yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("OCR_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://split.example.com")
	t.Setenv("RECEIPT_TTL", "1h")
	t.Setenv("OCR_CACHE_ENTRIES", "0")

	cfg := LoadFromEnv()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "openai", cfg.OCR.Provider)
	assert.Equal(t, "test-key", cfg.OCR.APIKey)
	assert.Equal(t, []string{"http://localhost:3000", "https://split.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, cfg.Storage.TTL)
	assert.Zero(t, cfg.OCR.CacheEntries)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OCR_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg := LoadFromEnv()
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.OCR.Provider)
	assert.Equal(t, "anthropic-key", cfg.OCR.APIKey)
	assert.Equal(t, "maven", cfg.Observability.Logging.Format)
	assert.Equal(t, DefaultCacheEntries, cfg.OCR.CacheEntries)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("DATABASE_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_OCR_KEY", "expanded-key")
	t.Setenv("TEST_DB_PATH", "expanded.db")

	path := writeConfig(t, `
ocr:
  api_key: "${TEST_OCR_KEY}"
storage:
  database_path: "${TEST_DB_PATH}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", cfg.OCR.APIKey)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}

func TestGetAPIKey(t *testing.T) {
	t.Setenv("SECOND_KEY", "from-env")
	cfg := Default()

	assert.Equal(t, "from-config", cfg.GetAPIKey("from-config", "SECOND_KEY"))
	assert.Equal(t, "from-env", cfg.GetAPIKey("", "MISSING_KEY", "SECOND_KEY"))
	assert.Empty(t, cfg.GetAPIKey("", "MISSING_KEY"))
}

func TestIsProduction(t *testing.T) {
	cfg := Default()
	assert.False(t, cfg.IsProduction())

	cfg.Environment = "Production"
	assert.True(t, cfg.IsProduction())
}
