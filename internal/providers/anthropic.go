package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ChamsBouzaiene/recap/internal/engine"

	anthropic "github.com/liushuangls/go-anthropic/v2"
)

// anthropicMaxTokens caps completion length for Anthropic endpoints, which
// require an explicit maximum. Condensed chunks and reports are short.
const anthropicMaxTokens = 2048

// AnthropicClient implements engine.Client for endpoints declared with
// kind "anthropic".
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for one Anthropic endpoint. An empty
// baseURL uses the official API.
func NewAnthropicClient(apiKey, model, baseURL string, timeout time.Duration) *AnthropicClient {
	opts := []anthropic.ClientOption{}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if timeout > 0 {
		opts = append(opts, anthropic.WithHTTPClient(&http.Client{Timeout: timeout}))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

// Generate implements engine.Client.
func (c *AnthropicClient) Generate(ctx context.Context, req engine.GenerationRequest) (string, error) {
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		System:    req.System,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(req.User)},
		MaxTokens: anthropicMaxTokens,
	})
	if err != nil {
		return "", err
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", fmt.Errorf("empty response from endpoint")
	}
	return text, nil
}
