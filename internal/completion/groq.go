// Package completion generates assistant replies through Groq's
// OpenAI-compatible chat-completion API.
package completion

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"tonebot/internal/chat"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.1-8b-instant"

	temperature = 1
	maxTokens   = 1024
	topP        = 1
)

// Client calls the Groq chat-completion endpoint. It implements
// chat.Completer.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a completion client. model and baseURL may be empty to use the
// Groq defaults.
func New(apiKey string, model string, baseURL string) *Client {
	if model == "" {
		model = defaultModel
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}
}

// Complete sends the full transcript and returns the generated reply text.
// The transcript order is the literal prompt: no reordering or truncation.
func (c *Client) Complete(ctx context.Context, messages []chat.Message) (string, error) {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        topP,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
