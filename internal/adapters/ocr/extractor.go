// Package ocr reads receipt photos with a vision model.
//
// Extractors send one image and a prompt to the provider and return the raw
// text the model answered with. Turning that text into items is the parser's
// job.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Provider names accepted in configuration.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// ErrInvalidImage is returned when image bytes cannot be decoded.
var ErrInvalidImage = errors.New("invalid image")

// Extractor reads the text of a receipt image. A model that answers without
// any text yields "" and no error.
type Extractor interface {
	Extract(ctx context.Context, image []byte, mediaType string) (string, error)
}

// Config selects and configures an extractor.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	Language  string
	MaxTokens int64
}

// New builds the extractor named by cfg.Provider.
func New(cfg Config, logger *slog.Logger) (Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case ProviderAnthropic, "":
		return NewAnthropicExtractor(cfg, logger), nil
	case ProviderOpenAI:
		return NewOpenAIExtractor(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown OCR provider %q", cfg.Provider)
	}
}
