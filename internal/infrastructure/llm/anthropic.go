package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"researchdigest/internal/domain"
)

// AnthropicBackend completes prompts through the Anthropic messages API.
type AnthropicBackend struct {
	client *anthropic.Client
	model  anthropic.Model
}

var _ Backend = (*AnthropicBackend)(nil)

// NewAnthropicBackend builds a client; model defaults to the current Haiku.
func NewAnthropicBackend(apiKey, model string) *AnthropicBackend {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	m := anthropic.ModelClaudeHaiku4_5
	if model != "" {
		m = anthropic.Model(model)
	}
	return &AnthropicBackend{client: &client, model: m}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

// Complete sends the prompt and returns the raw completion text unmodified.
func (b *AnthropicBackend) Complete(ctx context.Context, promptText string, maxTokens int64) (domain.Completion, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     b.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(promptText)),
		},
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("anthropic API error: %w", err)
	}
	if len(resp.Content) == 0 {
		return domain.Completion{}, fmt.Errorf("no response from anthropic")
	}

	return domain.Completion{
		Text: resp.Content[0].Text,
		Usage: domain.TokenUsage{
			Input:  resp.Usage.InputTokens,
			Output: resp.Usage.OutputTokens,
		},
	}, nil
}
