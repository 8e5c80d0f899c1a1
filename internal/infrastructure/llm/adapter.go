package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
)

var (
	// ErrInvocationTimeout marks a per-call deadline expiry. Retryable.
	ErrInvocationTimeout = errors.New("invocation timeout")
	// ErrInvocationFailure marks a transport or rate-limit error. Retryable.
	ErrInvocationFailure = errors.New("invocation failure")
)

// Adapter wraps a Backend with the invocation discipline: a timeout per
// call, exponential backoff between retries, and a retry ceiling. It is
// stateless across calls and never touches the prompt text.
type Adapter struct {
	backend     Backend
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	logger      *slog.Logger
}

var _ ports.Completer = (*Adapter)(nil)

// NewAdapter configures the retry discipline around a backend.
func NewAdapter(backend Backend, timeout time.Duration, maxRetries int, backoffBase time.Duration, logger *slog.Logger) *Adapter {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if backoffBase <= 0 {
		backoffBase = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		backend:     backend,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		logger:      logger,
	}
}

// Complete invokes the backend, retrying timeouts and transport failures
// with exponential backoff. Caller cancellation is never retried.
func (a *Adapter) Complete(ctx context.Context, promptText string, maxWords int) (domain.Completion, error) {
	maxTokens := outputTokenHint(maxWords)

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: base, 2x, 4x...
			delay := a.backoffBase << uint(attempt-1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.Completion{}, ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		completion, err := a.backend.Complete(callCtx, promptText, maxTokens)
		cancel()

		if err == nil {
			return completion, nil
		}
		if ctx.Err() != nil {
			return domain.Completion{}, ctx.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) {
			lastErr = fmt.Errorf("%w: %v", ErrInvocationTimeout, err)
		} else {
			lastErr = fmt.Errorf("%w: %v", ErrInvocationFailure, err)
		}
		a.logger.Warn("model invocation failed",
			"backend", a.backend.Name(), "attempt", attempt+1, "error", err)
	}

	return domain.Completion{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// outputTokenHint sizes the backend output limit from the word budget.
// Prose runs a little over one token per word; triple leaves room for
// markdown structure and the validator's tolerance.
func outputTokenHint(maxWords int) int64 {
	if maxWords <= 0 {
		return 4096
	}
	return int64(maxWords) * 3
}
