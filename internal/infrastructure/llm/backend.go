package llm

import (
	"context"

	"researchdigest/internal/domain"
)

// The report body is produced by the user prompt; the system prompt only
// sets the register.
const systemPrompt = "You write clear, concise Markdown reports."

// Backend is the raw transport to one model provider. Implementations do a
// single call with no retry policy of their own; the adapter owns timeouts
// and backoff.
type Backend interface {
	Name() string
	Complete(ctx context.Context, promptText string, maxTokens int64) (domain.Completion, error)
}
