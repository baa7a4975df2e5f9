// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	port := cfg.Server.Port
//	apiKey := cfg.OCR.APIKey
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Environment   string              `yaml:"environment"`
	Server        ServerConfig        `yaml:"server"`
	OCR           OCRConfig           `yaml:"ocr"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// OCRConfig holds vision model settings
type OCRConfig struct {
	Provider          string `yaml:"provider"` // anthropic | openai
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	BaseURL           string `yaml:"base_url"`
	Language          string `yaml:"language"`
	MaxTokens         int64  `yaml:"max_tokens"`
	MaxImageDimension int    `yaml:"max_image_dimension"`
	CacheEntries      int    `yaml:"cache_entries"` // 0 disables
}

// StorageConfig holds receipt store configuration
type StorageConfig struct {
	Driver        string        `yaml:"driver"` // memory | sqlite
	DatabasePath  string        `yaml:"database_path"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | text | maven | tint
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults
const (
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 10 << 20
	DefaultTTL            = 24 * time.Hour
	DefaultSweepInterval  = 15 * time.Minute
	DefaultLanguage       = "es"
	DefaultMaxImageDim    = 2048
	DefaultCacheEntries   = 256
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${ANTHROPIC_API_KEY})
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:           DefaultPort,
			AllowedOrigins: []string{"*"},
			MaxUploadBytes: DefaultMaxUploadBytes,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   90 * time.Second,
		},
		OCR: OCRConfig{
			Provider:          "anthropic",
			Language:          DefaultLanguage,
			MaxImageDimension: DefaultMaxImageDim,
			CacheEntries:      DefaultCacheEntries,
		},
		Storage: StorageConfig{
			Driver:        "memory",
			DatabasePath:  ":memory:",
			TTL:           DefaultTTL,
			SweepInterval: DefaultSweepInterval,
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "maven",
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}
	cfg.Server.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.Server.MaxUploadBytes)))

	cfg.OCR.Provider = getEnv("OCR_PROVIDER", cfg.OCR.Provider)
	cfg.OCR.Model = getEnv("OCR_MODEL", "")
	cfg.OCR.Language = getEnv("OCR_LANGUAGE", cfg.OCR.Language)
	cfg.OCR.MaxImageDimension = getEnvInt("OCR_MAX_IMAGE_DIMENSION", cfg.OCR.MaxImageDimension)
	cfg.OCR.CacheEntries = getEnvInt("OCR_CACHE_ENTRIES", cfg.OCR.CacheEntries)
	switch cfg.OCR.Provider {
	case "openai":
		cfg.OCR.APIKey = cfg.GetAPIKey("", "OPENAI_API_KEY", "OPENAI_APIKEY")
	default:
		cfg.OCR.APIKey = cfg.GetAPIKey("", "ANTHROPIC_API_KEY")
	}

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.DatabasePath = getEnv("DATABASE_PATH", cfg.Storage.DatabasePath)
	cfg.Storage.TTL = getEnvDuration("RECEIPT_TTL", cfg.Storage.TTL)
	cfg.Storage.SweepInterval = getEnvDuration("SWEEP_INTERVAL", cfg.Storage.SweepInterval)

	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.OCR.Provider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("ocr.provider must be anthropic or openai, got %q", c.OCR.Provider)
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be memory or sqlite, got %q", c.Storage.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// GetAPIKey retrieves an API key from config first, then tries multiple environment variable names
// Usage: GetAPIKey(cfg.OCR.APIKey, "ANTHROPIC_API_KEY")
//
//	GetAPIKey(cfg.OCR.APIKey, "OPENAI_API_KEY", "OPENAI_APIKEY")
func (c *Config) GetAPIKey(configValue string, envVarNames ...string) string {
	if configValue != "" {
		return configValue
	}

	for _, envVar := range envVarNames {
		if val := os.Getenv(envVar); val != "" {
			return val
		}
	}

	return ""
}
