package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"researchdigest/internal/domain"
	"researchdigest/internal/normalize"
	"researchdigest/internal/ports"
)

// PipelineDeps wires all driven adapters into the report pipeline.
// Repository and Sink may be nil: without a repository every run sees all
// articles, without a sink the report is only returned to the caller.
type PipelineDeps struct {
	Source      ports.ArticleSource
	Repository  ports.ReportRepository
	Normalizer  normalize.Normalizer
	Synthesizer *Synthesizer
	Sink        ports.ReportSink
	Logger      *slog.Logger
}

// Pipeline implements the full report-generation workflow: fetch, filter
// against history, normalize, synthesize, persist.
type Pipeline struct {
	source      ports.ArticleSource
	repository  ports.ReportRepository
	normalizer  normalize.Normalizer
	synthesizer *Synthesizer
	sink        ports.ReportSink
	wordBudget  int
	logger      *slog.Logger
}

// NewPipeline constructs the workflow component.
func NewPipeline(deps PipelineDeps, wordBudget int) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:      deps.Source,
		repository:  deps.Repository,
		normalizer:  deps.Normalizer,
		synthesizer: deps.Synthesizer,
		sink:        deps.Sink,
		wordBudget:  wordBudget,
		logger:      logger,
	}
}

// GenerateReport runs one full synthesis for the given date label and
// returns the report plus the path it was written to (empty without a
// sink).
func (p *Pipeline) GenerateReport(ctx context.Context, dateLabel string) (domain.Report, string, error) {
	raw, err := p.source.Fetch(ctx)
	if err != nil {
		return domain.Report{}, "", fmt.Errorf("fetch articles: %w", err)
	}
	p.logger.Info("articles fetched", "count", len(raw))

	raw = p.filterCovered(ctx, raw)

	batch, warnings := p.normalizer.Normalize(raw)
	for _, w := range warnings {
		p.logger.Warn("dropped malformed article", "reason", w.Reason, "title", w.Title, "url", w.URL)
	}
	p.logger.Info("batch normalized", "articles", len(batch.Articles), "dropped", len(warnings))

	report, err := p.synthesizer.Run(ctx, batch, dateLabel, p.wordBudget)
	if err != nil {
		return domain.Report{}, "", err
	}

	path := ""
	if p.sink != nil {
		path, err = p.sink.Write(ctx, report, dateLabel)
		if err != nil {
			return report, "", fmt.Errorf("write report: %w", err)
		}
		p.logger.Info("report written", "path", path, "degraded", report.Degraded)
	}

	if p.repository != nil && !report.Degraded && len(report.SourceArticleURLs) > 0 {
		if err := p.repository.MarkCovered(ctx, report.SourceArticleURLs, dateLabel); err != nil {
			p.logger.Warn("history update failed", "error", err)
		}
	}

	return report, path, nil
}

// filterCovered drops records whose URLs a previous report already
// summarized. History failures degrade to no filtering; the report is more
// important than the dedup.
func (p *Pipeline) filterCovered(ctx context.Context, raw []domain.RawArticle) []domain.RawArticle {
	if p.repository == nil || len(raw) == 0 {
		return raw
	}

	urls := make([]string, 0, len(raw))
	for _, r := range raw {
		if r.URL != "" {
			urls = append(urls, r.URL)
		}
	}

	covered, err := p.repository.CoveredURLs(ctx, urls)
	if err != nil {
		p.logger.Warn("history lookup failed, continuing without it", "error", err)
		return raw
	}
	if len(covered) == 0 {
		return raw
	}

	kept := raw[:0]
	for _, r := range raw {
		if covered[r.URL] {
			continue
		}
		kept = append(kept, r)
	}
	p.logger.Info("history filter applied", "skipped", len(raw)-len(kept))
	return kept
}
