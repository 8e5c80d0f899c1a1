package normalize

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"researchdigest/internal/domain"
)

// Warning reports a record the normalizer dropped instead of failing the
// whole batch. The orchestrator surfaces these to the operator.
type Warning struct {
	Reason string
	Title  string
	URL    string
}

// Normalizer turns untrusted feed records into a bounded, deterministic
// batch: malformed records dropped, excerpts stripped of markup and
// truncated at a word boundary, URLs deduplicated, newest articles first.
type Normalizer struct {
	MaxArticles     int
	MaxExcerptChars int
}

// New builds a normalizer with the given batch and excerpt caps.
func New(maxArticles, maxExcerptChars int) Normalizer {
	return Normalizer{MaxArticles: maxArticles, MaxExcerptChars: maxExcerptChars}
}

// Normalize produces the batch for one report run. The output depends only
// on the input slice, so repeated runs over identical input produce
// identical batches.
func (n Normalizer) Normalize(raw []domain.RawArticle) (domain.Batch, []Warning) {
	var warnings []Warning

	articles := make([]domain.Article, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Title) == "" {
			warnings = append(warnings, Warning{Reason: "missing title", Title: r.Title, URL: r.URL})
			continue
		}
		if strings.TrimSpace(r.URL) == "" {
			warnings = append(warnings, Warning{Reason: "missing url", Title: r.Title, URL: r.URL})
			continue
		}

		source := strings.TrimSpace(r.Source)
		if source == "" {
			source = "unknown"
		}

		articles = append(articles, domain.Article{
			Title:       strings.TrimSpace(r.Title),
			Source:      source,
			URL:         strings.TrimSpace(r.URL),
			PublishedAt: r.PublishedAt,
			Excerpt:     truncateAtWordBoundary(stripMarkup(r.Body), n.MaxExcerptChars),
		})
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].PublishedAt.Equal(articles[j].PublishedAt) {
			return articles[i].PublishedAt.After(articles[j].PublishedAt)
		}
		return articles[i].URL < articles[j].URL
	})

	seen := map[string]struct{}{}
	deduped := articles[:0]
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		deduped = append(deduped, a)
	}

	if n.MaxArticles > 0 && len(deduped) > n.MaxArticles {
		deduped = deduped[:n.MaxArticles]
	}

	return domain.Batch{Articles: deduped}, warnings
}

// stripMarkup reduces a possibly-HTML body to collapsed plain text.
func stripMarkup(body string) string {
	text := body
	if strings.ContainsAny(body, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
		if err == nil {
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}

// truncateAtWordBoundary cuts text to at most max bytes without splitting a
// word. A single word longer than the cap is cut at a rune boundary.
func truncateAtWordBoundary(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}

	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		return strings.TrimRight(cut[:idx], " ")
	}

	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
