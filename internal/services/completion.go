package services

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"concurseiro-backend/internal/models"
)

// CompletionClient wraps the chat-completions API. Model, temperature
// and token budget come from the caller's stored AI config row; the base
// URL override exists for OpenAI-compatible gateways and for tests.
type CompletionClient struct {
	baseURL string
}

func NewCompletionClient(baseURL string) *CompletionClient {
	return &CompletionClient{baseURL: baseURL}
}

func (c *CompletionClient) Complete(ctx context.Context, cfg *models.AIConfig, apiKey, system, user string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("no completion API key configured")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if c.baseURL != "" {
		clientCfg.BaseURL = c.baseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	var messages []openai.ChatCompletionMessage
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       cfg.Model,
		Messages:    messages,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
