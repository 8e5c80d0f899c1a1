package domain

import "time"

// TokenUsage carries optional accounting metadata from a model backend.
type TokenUsage struct {
	Input  int64
	Output int64
}

// Completion is the raw model output for one invocation. The text is passed
// through unmodified; interpretation belongs to the validator.
type Completion struct {
	Text  string
	Usage TokenUsage
}

// Report is the terminal artifact of one synthesis run. Immutable once
// returned by the orchestrator.
type Report struct {
	Markdown          string
	GeneratedAt       time.Time
	SourceArticleURLs []string
	Attempts          int

	// Degraded marks a report that exhausted its repair attempts without
	// passing validation. Unresolved lists what still fails.
	Degraded   bool
	Unresolved []Violation
}
