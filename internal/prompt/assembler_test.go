package prompt

import (
	"strings"
	"testing"
	"time"

	"researchdigest/internal/domain"
)

func sampleBatch() domain.Batch {
	published := time.Date(2026, time.August, 29, 8, 30, 0, 0, time.UTC)
	return domain.Batch{Articles: []domain.Article{
		{
			Title:       "Vector Databases in Production",
			Source:      "Engineering Weekly",
			URL:         "https://example.org/vector-db",
			PublishedAt: published,
			Excerpt:     "A look at operating vector stores at scale.",
		},
		{
			Title:       "Edge Inference Tradeoffs",
			Source:      "ML Notes",
			URL:         "https://example.org/edge",
			PublishedAt: published.Add(-time.Hour),
			Excerpt:     "Latency versus accuracy on small devices.",
		},
	}}
}

func TestBuildIsDeterministic(t *testing.T) {
	t.Parallel()

	batch := sampleBatch()
	a := New()

	first := a.Build(batch, "2026-08-29", 1200)
	second := a.Build(batch, "2026-08-29", 1200)

	if first.Text != second.Text {
		t.Fatalf("identical inputs produced different prompt text")
	}
	if first.ArticlesBlock != second.ArticlesBlock {
		t.Fatalf("identical inputs produced different articles block")
	}
}

func TestBuildContainsEveryArticleInOrder(t *testing.T) {
	t.Parallel()

	batch := sampleBatch()
	req := New().Build(batch, "2026-08-29", 1200)

	firstIdx := strings.Index(req.ArticlesBlock, "https://example.org/vector-db")
	secondIdx := strings.Index(req.ArticlesBlock, "https://example.org/edge")
	if firstIdx < 0 || secondIdx < 0 {
		t.Fatalf("articles block missing URLs:\n%s", req.ArticlesBlock)
	}
	if firstIdx > secondIdx {
		t.Fatalf("articles block does not preserve batch order")
	}
}

func TestBuildEmbedsContract(t *testing.T) {
	t.Parallel()

	req := New().Build(sampleBatch(), "2026-08-29", 900)

	for _, want := range []string{
		"## Executive Summary",
		"## Article Summaries",
		"## Idea Starters",
		"### Data Analysis Ideas",
		"### Blog Post Ideas",
		"### Product Ideas",
		"Do not invent articles, URLs, or sources",
		"under 900 words",
	} {
		if !strings.Contains(req.Text, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestBuildEscapesMarkdownInTitles(t *testing.T) {
	t.Parallel()

	batch := domain.Batch{Articles: []domain.Article{{
		Title:   "# Fake Heading [link]",
		Source:  "feed*",
		URL:     "https://example.org/x",
		Excerpt: "text",
	}}}

	req := New().Build(batch, "2026-08-29", 1200)
	if strings.Contains(req.ArticlesBlock, "\n# Fake") {
		t.Fatalf("unescaped heading in articles block:\n%s", req.ArticlesBlock)
	}
	if !strings.Contains(req.ArticlesBlock, `\# Fake Heading \[link\]`) {
		t.Fatalf("title was not escaped:\n%s", req.ArticlesBlock)
	}
	if !strings.Contains(req.ArticlesBlock, `feed\*`) {
		t.Fatalf("source was not escaped:\n%s", req.ArticlesBlock)
	}
}

func TestBuildRepairAppendsViolationsVerbatim(t *testing.T) {
	t.Parallel()

	a := New()
	base := a.Build(sampleBatch(), "2026-08-29", 1200)

	violations := []domain.Violation{
		domain.MissingSection(domain.SectionIdeaStarters),
		domain.FabricatedSource("https://bogus.example.org/story"),
	}
	repair := a.BuildRepair(base, violations)

	if !strings.HasPrefix(repair.Text, base.Text) {
		t.Fatalf("repair prompt should extend the original prompt")
	}
	for i, v := range violations {
		if !strings.Contains(repair.Text, v.String()) {
			t.Fatalf("repair prompt missing violation %d: %s", i, v)
		}
	}
	if repair.WordBudget != base.WordBudget || repair.DateLabel != base.DateLabel {
		t.Fatalf("repair request lost fields from the original")
	}
}

func TestBuildRepairDropsResolvedViolations(t *testing.T) {
	t.Parallel()

	a := New()
	base := a.Build(sampleBatch(), "2026-08-29", 1200)

	resolved := domain.MissingSection(domain.SectionIdeaStarters)
	first := a.BuildRepair(base, []domain.Violation{resolved})

	outstanding := domain.FabricatedSource("https://bogus.example.org/story")
	second := a.BuildRepair(first, []domain.Violation{outstanding})

	if strings.Contains(second.Text, resolved.String()) {
		t.Fatalf("second repair prompt still lists a resolved violation:\n%s", second.Text)
	}
	if !strings.Contains(second.Text, outstanding.String()) {
		t.Fatalf("second repair prompt missing the outstanding violation:\n%s", second.Text)
	}
	if !strings.HasPrefix(second.Text, base.Text) {
		t.Fatalf("repair prompt should extend the original prompt, not the previous repair")
	}
	if got := strings.Count(second.Text, "Your previous report violated"); got != 1 {
		t.Fatalf("expected exactly one violations block, found %d", got)
	}
}
