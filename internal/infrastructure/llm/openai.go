package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"researchdigest/internal/domain"
)

// OpenAIBackend completes prompts through the OpenAI chat API.
type OpenAIBackend struct {
	client *openai.Client
	model  openai.ChatModel
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend builds a client; model defaults to gpt-4o-mini.
func NewOpenAIBackend(apiKey, model string) *OpenAIBackend {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	chatModel := openai.ChatModelGPT4oMini
	if model != "" {
		chatModel = openai.ChatModel(model)
	}
	return &OpenAIBackend{client: &client, model: chatModel}
}

func (b *OpenAIBackend) Name() string { return "openai" }

// Complete sends the prompt and returns the raw completion text unmodified.
func (b *OpenAIBackend) Complete(ctx context.Context, promptText string, maxTokens int64) (domain.Completion, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               b.model,
		MaxCompletionTokens: openai.Int(maxTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(promptText),
		},
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("no response from openai")
	}

	return domain.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: domain.TokenUsage{
			Input:  resp.Usage.PromptTokens,
			Output: resp.Usage.CompletionTokens,
		},
	}, nil
}
