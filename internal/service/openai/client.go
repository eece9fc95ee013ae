// Package openai talks to any OpenAI-compatible chat completion endpoint.
// The default configuration targets the Gemini OpenAI compatibility layer.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
)

// Config holds the configuration for the chat client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client implements summarizer.Completer with a single chat turn.
type Client struct {
	api   *goopenai.Client
	model string
}

// NewClient creates a new chat client.
func NewClient(cfg Config) *Client {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:   goopenai.NewClientWithConfig(oc),
		model: cfg.Model,
	}
}

// Complete sends prompt as the user message and returns the last choice.
func (c *Client) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}
