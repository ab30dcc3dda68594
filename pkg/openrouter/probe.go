package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
)

// Probe sends a one-line chat completion to verify credentials and model
// availability. It returns the model's reply.
func Probe(ctx context.Context, client *openaisdk.Client, model string) (string, error) {
	if client == nil {
		return "", errors.New("openrouter: client is not configured")
	}
	resp, err := client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: model,
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.UserMessage("Reply with the single word: pong"),
		},
		MaxTokens: openaisdk.Int(8),
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: probe %s: %w", model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: probe %s: empty response", model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
