package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/parser"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultMaxTokens      = 4096
)

// AnthropicExtractor reads receipts with the Anthropic Messages API.
type AnthropicExtractor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	prompt    string
	logger    *slog.Logger
}

// NewAnthropicExtractor creates an extractor. Empty model and token limits
// fall back to defaults.
func NewAnthropicExtractor(cfg Config, logger *slog.Logger, opts ...option.RequestOption) *AnthropicExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicExtractor{
		client:    anthropic.NewClient(clientOpts...),
		model:     model,
		maxTokens: maxTokens,
		prompt:    BuildPrompt(cfg.Language),
		logger:    logger.With(slog.String("provider", ProviderAnthropic)),
	}
}

// Extract sends the image and prompt in one user message and returns the
// first text block of the answer with code fences removed.
func (e *AnthropicExtractor) Extract(ctx context.Context, image []byte, mediaType string) (string, error) {
	start := time.Now()

	message, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(e.prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			e.logger.Debug("extraction complete",
				slog.String("model", e.model),
				slog.Int("response_size", len(block.Text)),
				slog.Int64("tokens_in", message.Usage.InputTokens),
				slog.Int64("tokens_out", message.Usage.OutputTokens),
				slog.Duration("duration", time.Since(start)))
			return parser.CleanResponse(block.Text), nil
		}
	}
	e.logger.Warn("model answered without text",
		slog.String("model", e.model),
		slog.String("stop_reason", string(message.StopReason)))
	return "", nil
}
