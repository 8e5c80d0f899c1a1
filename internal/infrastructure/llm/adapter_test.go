package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"researchdigest/internal/domain"
)

type fakeBackend struct {
	errs       []error
	completion domain.Completion
	calls      int
	onCall     func(attempt int)
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Complete(_ context.Context, _ string, _ int64) (domain.Completion, error) {
	idx := f.calls
	f.calls++
	if f.onCall != nil {
		f.onCall(idx)
	}
	if idx < len(f.errs) && f.errs[idx] != nil {
		return domain.Completion{}, f.errs[idx]
	}
	return f.completion, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdapterRetriesTimeoutsWithinCeiling(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		errs:       []error{context.DeadlineExceeded, context.DeadlineExceeded},
		completion: domain.Completion{Text: "report body"},
	}
	adapter := NewAdapter(backend, time.Second, 3, time.Millisecond, testLogger())

	completion, err := adapter.Complete(context.Background(), "prompt", 1200)
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if completion.Text != "report body" {
		t.Fatalf("unexpected completion: %q", completion.Text)
	}
	if backend.calls != 3 {
		t.Fatalf("expected 3 backend calls, got %d", backend.calls)
	}
}

func TestAdapterExhaustionClassifiesTimeout(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		errs: []error{context.DeadlineExceeded, context.DeadlineExceeded, context.DeadlineExceeded},
	}
	adapter := NewAdapter(backend, time.Second, 2, time.Millisecond, testLogger())

	_, err := adapter.Complete(context.Background(), "prompt", 1200)
	if !errors.Is(err, ErrInvocationTimeout) {
		t.Fatalf("expected ErrInvocationTimeout, got %v", err)
	}
	if backend.calls != 3 {
		t.Fatalf("expected maxRetries+1 calls, got %d", backend.calls)
	}
}

func TestAdapterExhaustionClassifiesTransportFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("rate limit exceeded (429)")
	backend := &fakeBackend{errs: []error{boom, boom, boom}}
	adapter := NewAdapter(backend, time.Second, 2, time.Millisecond, testLogger())

	_, err := adapter.Complete(context.Background(), "prompt", 1200)
	if !errors.Is(err, ErrInvocationFailure) {
		t.Fatalf("expected ErrInvocationFailure, got %v", err)
	}
}

func TestAdapterDoesNotRetryCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	backend := &fakeBackend{
		errs: []error{errors.New("connection reset"), errors.New("connection reset")},
		onCall: func(int) {
			cancel()
		},
	}
	adapter := NewAdapter(backend, time.Second, 5, time.Millisecond, testLogger())

	_, err := adapter.Complete(ctx, "prompt", 1200)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("cancelled call must not be retried, got %d calls", backend.calls)
	}
}

func TestOutputTokenHint(t *testing.T) {
	t.Parallel()

	if got := outputTokenHint(1200); got != 3600 {
		t.Fatalf("expected 3600, got %d", got)
	}
	if got := outputTokenHint(0); got != 4096 {
		t.Fatalf("expected fallback 4096, got %d", got)
	}
}
