package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/parser"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIExtractor reads receipts with the OpenAI chat completions API.
type OpenAIExtractor struct {
	apiKey     string
	baseURL    string
	model      string
	maxTokens  int64
	prompt     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAIExtractor creates an extractor
func NewOpenAIExtractor(cfg Config, logger *slog.Logger) *OpenAIExtractor {
	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &OpenAIExtractor{
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		maxTokens: maxTokens,
		prompt:    BuildPrompt(cfg.Language),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With(slog.String("provider", ProviderOpenAI)),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int64         `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// Extract posts the image as a data URI next to the prompt.
func (e *OpenAIExtractor) Extract(ctx context.Context, image []byte, mediaType string) (string, error) {
	start := time.Now()

	dataURI := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(image))
	request := chatRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: e.prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			},
		}},
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errorResp); err == nil && errorResp.Error.Message != "" {
			return "", fmt.Errorf("OpenAI API error: %s (type: %s)", errorResp.Error.Message, errorResp.Error.Type)
		}
		return "", fmt.Errorf("OpenAI API returned status %d: %s", resp.StatusCode, string(body))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		e.logger.Warn("model answered without text",
			slog.String("model", e.model),
			slog.Int("choices", len(response.Choices)))
		return "", nil
	}

	content := response.Choices[0].Message.Content
	attrs := []any{
		slog.String("model", e.model),
		slog.Int("response_size", len(content)),
		slog.Duration("duration", time.Since(start)),
	}
	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int64("tokens_in", response.Usage.PromptTokens),
			slog.Int64("tokens_out", response.Usage.CompletionTokens))
	}
	e.logger.Debug("extraction complete", attrs...)

	return parser.CleanResponse(content), nil
}
