package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/recap/internal/engine"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIClient implements engine.Client for OpenAI-compatible endpoints.
// The SDK posts to <base URL>/chat/completions with bearer-token auth, which
// is the wire contract every supported endpoint speaks.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client for one endpoint. baseURL must point at
// the API root (e.g. "https://api.example.com/v1"); a trailing slash is
// stripped. timeout bounds each request, zero picks the SDK default.
func NewOpenAIClient(apiKey, model, baseURL string, timeout time.Duration) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Generate implements engine.Client with a two-message completion request:
// system instructions first, then the content.
func (c *OpenAIClient) Generate(ctx context.Context, req engine.GenerationRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from endpoint")
	}
	return resp.Choices[0].Message.Content, nil
}
