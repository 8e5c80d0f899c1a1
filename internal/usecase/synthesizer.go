package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
	"researchdigest/internal/prompt"
	"researchdigest/internal/validate"
)

// ErrCancelled is returned when the caller's context ends a run before any
// report can be produced.
var ErrCancelled = errors.New("report generation cancelled")

type state int

const (
	stateAssembling state = iota
	stateInvoking
	stateValidating
	stateRepairing
)

// SynthesizerDeps wires the components one synthesis run needs.
type SynthesizerDeps struct {
	Completer ports.Completer
	Assembler prompt.Assembler
	Validator validate.Validator
	Logger    *slog.Logger
}

// Synthesizer drives one batch through assemble, invoke, validate and the
// bounded repair loop. Explicit state plus an attempt counter rather than
// recursion, so termination is guaranteed.
type Synthesizer struct {
	completer      ports.Completer
	assembler      prompt.Assembler
	validator      validate.Validator
	maxAttempts    int
	overallTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewSynthesizer builds the orchestration component. maxAttempts bounds
// the number of model invocations per run; overallTimeout (optional) is a
// wall-clock ceiling across the whole run.
func NewSynthesizer(deps SynthesizerDeps, maxAttempts int, overallTimeout time.Duration) *Synthesizer {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		completer:      deps.Completer,
		assembler:      deps.Assembler,
		validator:      deps.Validator,
		maxAttempts:    maxAttempts,
		overallTimeout: overallTimeout,
		logger:         logger,
		now:            time.Now,
	}
}

// Run produces one report. A passing validation or an exhausted repair
// ceiling both terminate in a report; the degraded flag and the unresolved
// violations tell them apart. Cancellation produces no report at all.
func (s *Synthesizer) Run(ctx context.Context, batch domain.Batch, dateLabel string, wordBudget int) (domain.Report, error) {
	if batch.Empty() {
		s.logger.Info("no articles in batch, emitting stub report", "date", dateLabel)
		return s.stubReport(dateLabel), nil
	}

	var deadline time.Time
	if s.overallTimeout > 0 {
		deadline = s.now().Add(s.overallTimeout)
	}

	var (
		req            prompt.Request
		last           domain.Completion
		haveCompletion bool
		lastResult     domain.ValidationResult
		attempts       int
	)

	current := stateAssembling
	for {
		if ctx.Err() != nil {
			return domain.Report{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}

		switch current {
		case stateAssembling:
			req = s.assembler.Build(batch, dateLabel, wordBudget)
			current = stateInvoking

		case stateInvoking:
			// The wall-clock ceiling bounds the in-flight call too, so a
			// hung invocation cannot run the whole pipeline past it.
			invokeCtx := ctx
			var cancelInvoke context.CancelFunc
			if !deadline.IsZero() {
				invokeCtx, cancelInvoke = context.WithDeadline(ctx, deadline)
			}
			completion, err := s.completer.Complete(invokeCtx, req.Text, wordBudget)
			if cancelInvoke != nil {
				cancelInvoke()
			}
			attempts++
			if err != nil {
				if ctx.Err() != nil {
					return domain.Report{}, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
				}
				if haveCompletion {
					s.logger.Warn("invocation failed mid-repair, returning best effort",
						"attempts", attempts, "error", err)
					return s.report(last, batch, lastResult.Violations, attempts, true), nil
				}
				return domain.Report{}, fmt.Errorf("invoke model: %w", err)
			}
			last = completion
			haveCompletion = true
			current = stateValidating

		case stateValidating:
			lastResult = s.validator.Validate(last.Text, batch)
			if lastResult.OK {
				s.logger.Info("report validated", "attempts", attempts,
					"input_tokens", last.Usage.Input, "output_tokens", last.Usage.Output)
				return s.report(last, batch, nil, attempts, false), nil
			}

			s.logger.Warn("validation failed", "attempt", attempts,
				"violations", len(lastResult.Violations))
			if attempts >= s.maxAttempts {
				s.logger.Warn("repair ceiling reached, returning degraded report",
					"attempts", attempts)
				return s.report(last, batch, lastResult.Violations, attempts, true), nil
			}
			if !deadline.IsZero() && s.now().After(deadline) {
				s.logger.Warn("wall-clock ceiling reached, returning degraded report",
					"attempts", attempts)
				return s.report(last, batch, lastResult.Violations, attempts, true), nil
			}
			current = stateRepairing

		case stateRepairing:
			req = s.assembler.BuildRepair(req, lastResult.Violations)
			current = stateInvoking
		}
	}
}

func (s *Synthesizer) report(c domain.Completion, batch domain.Batch, unresolved []domain.Violation, attempts int, degraded bool) domain.Report {
	return domain.Report{
		Markdown:          c.Text,
		GeneratedAt:       s.now().UTC(),
		SourceArticleURLs: batch.URLs(),
		Attempts:          attempts,
		Degraded:          degraded,
		Unresolved:        unresolved,
	}
}

func (s *Synthesizer) stubReport(dateLabel string) domain.Report {
	return domain.Report{
		Markdown:    fmt.Sprintf("# Daily Research & Idea Report - %s\n\nNo articles found today.\n", dateLabel),
		GeneratedAt: s.now().UTC(),
		Attempts:    0,
	}
}
