package ports

import (
	"context"

	"researchdigest/internal/domain"
)

// ArticleSource pulls raw article records from upstream feeds. The result
// is untrusted input; the normalizer is responsible for validation.
type ArticleSource interface {
	Fetch(ctx context.Context) ([]domain.RawArticle, error)
}

// Completer sends prompt text to a generative backend and returns the raw
// completion. maxWords is a hint for the backend's output-length limit.
type Completer interface {
	Complete(ctx context.Context, promptText string, maxWords int) (domain.Completion, error)
}

// ReportRepository remembers which article URLs previous reports covered,
// so consecutive runs do not re-summarize the same stories.
type ReportRepository interface {
	CoveredURLs(ctx context.Context, urls []string) (map[string]bool, error)
	MarkCovered(ctx context.Context, urls []string, reportDate string) error
}

// ReportSink writes the finished artifact and returns its location.
type ReportSink interface {
	Write(ctx context.Context, report domain.Report, dateLabel string) (string, error)
}
