package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"researchdigest/internal/domain"
)

// GeminiBackend completes prompts through Google's GenAI API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

var _ Backend = (*GeminiBackend)(nil)

// NewGeminiBackend builds a client; model defaults to gemini-2.0-flash.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiBackend{client: client, model: model}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

// Complete sends the prompt and returns the raw completion text unmodified.
func (b *GeminiBackend) Complete(ctx context.Context, promptText string, maxTokens int64) (domain.Completion, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens:   int32(maxTokens),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(promptText), cfg)
	if err != nil {
		return domain.Completion{}, fmt.Errorf("gemini API error: %w", err)
	}

	text := result.Text()
	if text == "" {
		return domain.Completion{}, fmt.Errorf("no response from gemini")
	}

	completion := domain.Completion{Text: text}
	if result.UsageMetadata != nil {
		completion.Usage = domain.TokenUsage{
			Input:  int64(result.UsageMetadata.PromptTokenCount),
			Output: int64(result.UsageMetadata.CandidatesTokenCount),
		}
	}
	return completion, nil
}
