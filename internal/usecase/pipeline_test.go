package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"researchdigest/internal/domain"
	"researchdigest/internal/normalize"
	"researchdigest/internal/prompt"
	"researchdigest/internal/validate"
)

type stubSource struct {
	articles []domain.RawArticle
	err      error
}

func (s *stubSource) Fetch(context.Context) ([]domain.RawArticle, error) {
	return s.articles, s.err
}

type stubRepository struct {
	covered map[string]bool
	marked  []string
	lookErr error
}

func (r *stubRepository) CoveredURLs(_ context.Context, urls []string) (map[string]bool, error) {
	if r.lookErr != nil {
		return nil, r.lookErr
	}
	result := map[string]bool{}
	for _, u := range urls {
		if r.covered[u] {
			result[u] = true
		}
	}
	return result, nil
}

func (r *stubRepository) MarkCovered(_ context.Context, urls []string, _ string) error {
	r.marked = append(r.marked, urls...)
	return nil
}

type memorySink struct {
	report domain.Report
	writes int
}

func (m *memorySink) Write(_ context.Context, report domain.Report, _ string) (string, error) {
	m.report = report
	m.writes++
	return "reports/report-test.md", nil
}

func rawFixtures() []domain.RawArticle {
	published := time.Date(2026, time.August, 29, 9, 0, 0, 0, time.UTC)
	return []domain.RawArticle{
		{Title: "Article 1", Source: "feed", URL: "https://example.org/a1", PublishedAt: published, Body: "one"},
		{Title: "Article 2", Source: "feed", URL: "https://example.org/a2", PublishedAt: published.Add(-time.Hour), Body: "two"},
		{Title: "", Source: "feed", URL: "https://example.org/broken", PublishedAt: published, Body: "no title"},
	}
}

func newTestPipeline(source *stubSource, repo *stubRepository, sink *memorySink, completer *scriptedCompleter) *Pipeline {
	synth := NewSynthesizer(SynthesizerDeps{
		Completer: completer,
		Assembler: prompt.New(),
		Validator: validate.New(1200, 0.10),
		Logger:    testLogger(),
	}, 3, 0)

	deps := PipelineDeps{
		Source:      source,
		Normalizer:  normalize.New(15, 500),
		Synthesizer: synth,
		Logger:      testLogger(),
	}
	if repo != nil {
		deps.Repository = repo
	}
	if sink != nil {
		deps.Sink = sink
	}
	return NewPipeline(deps, 1200)
}

func TestGenerateReportEndToEnd(t *testing.T) {
	t.Parallel()

	batch := domain.Batch{Articles: []domain.Article{
		{Title: "Article 1", Source: "feed", URL: "https://example.org/a1"},
		{Title: "Article 2", Source: "feed", URL: "https://example.org/a2"},
	}}
	completer := &scriptedCompleter{responses: []string{wellFormedReport(batch)}}
	sink := &memorySink{}
	repo := &stubRepository{covered: map[string]bool{}}

	p := newTestPipeline(&stubSource{articles: rawFixtures()}, repo, sink, completer)
	report, path, err := p.GenerateReport(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("GenerateReport error: %v", err)
	}

	if path != "reports/report-test.md" {
		t.Fatalf("unexpected path: %s", path)
	}
	if sink.writes != 1 {
		t.Fatalf("expected one sink write, got %d", sink.writes)
	}
	if report.Degraded {
		t.Fatalf("expected clean report")
	}
	if len(repo.marked) != 2 {
		t.Fatalf("expected 2 URLs marked covered, got %v", repo.marked)
	}
}

func TestGenerateReportSkipsCoveredURLs(t *testing.T) {
	t.Parallel()

	// Only a2 remains after the history filter.
	batch := domain.Batch{Articles: []domain.Article{
		{Title: "Article 2", Source: "feed", URL: "https://example.org/a2"},
	}}
	completer := &scriptedCompleter{responses: []string{wellFormedReport(batch)}}
	repo := &stubRepository{covered: map[string]bool{"https://example.org/a1": true}}

	p := newTestPipeline(&stubSource{articles: rawFixtures()}, repo, &memorySink{}, completer)
	report, _, err := p.GenerateReport(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("GenerateReport error: %v", err)
	}

	if len(report.SourceArticleURLs) != 1 || report.SourceArticleURLs[0] != "https://example.org/a2" {
		t.Fatalf("history filter not applied: %v", report.SourceArticleURLs)
	}
}

func TestGenerateReportHistoryFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	batch := domain.Batch{Articles: []domain.Article{
		{Title: "Article 1", Source: "feed", URL: "https://example.org/a1"},
		{Title: "Article 2", Source: "feed", URL: "https://example.org/a2"},
	}}
	completer := &scriptedCompleter{responses: []string{wellFormedReport(batch)}}
	repo := &stubRepository{lookErr: errors.New("connection refused")}

	p := newTestPipeline(&stubSource{articles: rawFixtures()}, repo, &memorySink{}, completer)
	report, _, err := p.GenerateReport(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("history failure should not fail the run: %v", err)
	}
	if len(report.SourceArticleURLs) != 2 {
		t.Fatalf("expected all articles without history, got %v", report.SourceArticleURLs)
	}
}

func TestGenerateReportDegradedSkipsHistory(t *testing.T) {
	t.Parallel()

	batch := domain.Batch{Articles: []domain.Article{
		{Title: "Article 1", Source: "feed", URL: "https://example.org/a1"},
		{Title: "Article 2", Source: "feed", URL: "https://example.org/a2"},
	}}
	bad := strings.Replace(wellFormedReport(batch), "## Idea Starters", "## Other", 1)
	completer := &scriptedCompleter{responses: []string{bad}}
	repo := &stubRepository{covered: map[string]bool{}}

	p := newTestPipeline(&stubSource{articles: rawFixtures()}, repo, &memorySink{}, completer)
	report, _, err := p.GenerateReport(context.Background(), "2026-08-29")
	if err != nil {
		t.Fatalf("GenerateReport error: %v", err)
	}

	if !report.Degraded {
		t.Fatalf("expected degraded report")
	}
	if len(repo.marked) != 0 {
		t.Fatalf("degraded run must not mark URLs covered, got %v", repo.marked)
	}
}

func TestGenerateReportSourceFailure(t *testing.T) {
	t.Parallel()

	completer := &scriptedCompleter{responses: []string{"unused"}}
	p := newTestPipeline(&stubSource{err: errors.New("dns failure")}, nil, nil, completer)

	if _, _, err := p.GenerateReport(context.Background(), "2026-08-29"); err == nil {
		t.Fatalf("expected fetch failure to surface")
	}
}
