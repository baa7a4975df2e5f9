package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareImage_DownscalesLargeImages(t *testing.T) {
	out, err := PrepareImage(pngBytes(t, 400, 100), 200)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestPrepareImage_KeepsSmallImages(t *testing.T) {
	out, err := PrepareImage(pngBytes(t, 120, 80), 2048)
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
	// JPEG magic
	assert.Equal(t, []byte{0xFF, 0xD8}, out[:2])
}

func TestPrepareImage_InvalidBytes(t *testing.T) {
	_, err := PrepareImage([]byte("definitely not an image"), 0)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestBuildPrompt_Language(t *testing.T) {
	assert.Contains(t, BuildPrompt("es"), "language of the receipt is Spanish")
	assert.Contains(t, BuildPrompt("en"), "language of the receipt is English")
	assert.Contains(t, BuildPrompt(""), "language of the receipt is Spanish")
	assert.Contains(t, BuildPrompt("Euskara"), "language of the receipt is Euskara")
	assert.Contains(t, BuildPrompt("es"), `"is_ticket"`)
}

func TestNew_SelectsProvider(t *testing.T) {
	e, err := New(Config{Provider: ProviderOpenAI}, nil)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIExtractor{}, e)

	e, err = New(Config{Provider: ProviderAnthropic}, nil)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicExtractor{}, e)

	_, err = New(Config{Provider: "gemini"}, nil)
	assert.Error(t, err)
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"is_ticket\\\": true}\\n```" + `"}}]}`))
	}))
	defer server.Close()

	e := NewOpenAIExtractor(Config{APIKey: "test-key", BaseURL: server.URL, Language: "es"}, nil)

	text, err := e.Extract(context.Background(), []byte{1, 2, 3}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, `{"is_ticket": true}`, text)

	require.Len(t, got.Messages, 1)
	require.Len(t, got.Messages[0].Content, 2)
	assert.Equal(t, "text", got.Messages[0].Content[0].Type)
	assert.Equal(t, "image_url", got.Messages[0].Content[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,AQID", got.Messages[0].Content[1].ImageURL.URL)
	assert.Equal(t, defaultOpenAIModel, got.Model)
}

func TestOpenAIExtractor_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	e := NewOpenAIExtractor(Config{BaseURL: server.URL}, nil)

	_, err := e.Extract(context.Background(), []byte{1}, "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAIExtractor_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	e := NewOpenAIExtractor(Config{BaseURL: server.URL}, nil)

	text, err := e.Extract(context.Background(), []byte{1}, "image/jpeg")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestAnthropicExtractor_Extract(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"is_ticket\": false}"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	e := NewAnthropicExtractor(Config{APIKey: "test-key", BaseURL: server.URL}, nil, option.WithMaxRetries(0))

	text, err := e.Extract(context.Background(), []byte{1, 2, 3}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, `{"is_ticket": false}`, text)

	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image", content[0].(map[string]any)["type"])
	assert.Equal(t, "text", content[1].(map[string]any)["type"])
}

func TestAnthropicExtractor_NoTextBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_02",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [],
			"stop_reason": "max_tokens",
			"usage": {"input_tokens": 10, "output_tokens": 0}
		}`))
	}))
	defer server.Close()

	e := NewAnthropicExtractor(Config{APIKey: "test-key", BaseURL: server.URL}, nil, option.WithMaxRetries(0))

	text, err := e.Extract(context.Background(), []byte{1}, "image/jpeg")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestAnthropicExtractor_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"image too large"}}`))
	}))
	defer server.Close()

	e := NewAnthropicExtractor(Config{APIKey: "test-key", BaseURL: server.URL}, nil, option.WithMaxRetries(0))

	_, err := e.Extract(context.Background(), []byte{1}, "image/jpeg")
	assert.Error(t, err)
}
