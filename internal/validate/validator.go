package validate

import (
	"regexp"
	"strings"

	"researchdigest/internal/domain"
)

// Validator checks a raw completion against the report contract. It never
// fails hard: malformed input is expressed as violations, because a
// non-conformant completion is the repair loop's business, not an error.
type Validator struct {
	WordBudget int
	Tolerance  float64
}

// New builds a validator for the given word budget and tolerance fraction
// (0.10 allows a 10% overrun).
func New(wordBudget int, tolerance float64) Validator {
	return Validator{WordBudget: wordBudget, Tolerance: tolerance}
}

var (
	bulletExpr  = regexp.MustCompile(`(?m)^\s*[-*+]\s+\S`)
	urlLineExpr = regexp.MustCompile(`(?m)^\s*(?:[-*+]\s+)?URL:\s*<?([^\s>]+)>?\s*$`)
)

// Validate runs every contract check in order and collects all violations,
// so a single repair prompt can address everything at once.
func (v Validator) Validate(rawText string, batch domain.Batch) domain.ValidationResult {
	sections := parseSections(rawText)
	var violations []domain.Violation

	for _, name := range domain.RequiredSections() {
		content, ok := sections[name]
		if !ok {
			violations = append(violations, domain.MissingSection(name))
			continue
		}
		if strings.TrimSpace(content) == "" {
			violations = append(violations, domain.EmptySection(name))
		}
	}

	if content, ok := sections[domain.SectionExecutiveSummary]; ok {
		got := countBullets(content)
		if got < domain.ExecutiveSummaryMinBullets || got > domain.ExecutiveSummaryMaxBullets {
			violations = append(violations, domain.BulletCountOutOfRange(
				domain.SectionExecutiveSummary, got,
				domain.ExecutiveSummaryMinBullets, domain.ExecutiveSummaryMaxBullets))
		}
	}

	if content, ok := sections[domain.SectionArticleSummaries]; ok {
		violations = append(violations, checkSummaryEntries(content, batch)...)
	}

	if content, ok := sections[domain.SectionIdeaStarters]; ok && strings.TrimSpace(content) != "" {
		violations = append(violations, checkIdeaStarters(content)...)
	}

	if v.WordBudget > 0 {
		limit := int(float64(v.WordBudget) * (1 + v.Tolerance))
		if actual := len(strings.Fields(rawText)); actual > limit {
			violations = append(violations, domain.WordBudgetExceeded(actual, limit))
		}
	}

	return domain.ValidationResult{
		OK:         len(violations) == 0,
		Violations: violations,
		Sections:   sections,
	}
}

// checkSummaryEntries enforces the no-fabrication invariant: the URL
// multiset of the Article Summaries section must equal the batch URL set,
// each exactly once.
func checkSummaryEntries(content string, batch domain.Batch) []domain.Violation {
	counts := map[string]int{}
	var order []string
	for _, m := range urlLineExpr.FindAllStringSubmatch(content, -1) {
		url := strings.TrimRight(m[1], ".,;")
		if counts[url] == 0 {
			order = append(order, url)
		}
		counts[url]++
	}

	var violations []domain.Violation
	inBatch := batch.URLSet()

	for _, url := range batch.URLs() {
		switch n := counts[url]; {
		case n == 0:
			violations = append(violations, domain.MissingArticle(url))
		case n > 1:
			violations = append(violations, domain.DuplicateArticle(url, n))
		}
	}

	for _, url := range order {
		if _, ok := inBatch[url]; !ok {
			violations = append(violations, domain.FabricatedSource(url))
		}
	}

	return violations
}

func checkIdeaStarters(content string) []domain.Violation {
	categories := parseSubSections(content)

	bounds := []struct {
		name     string
		min, max int
	}{
		{domain.IdeaCategoryDataAnalysis, domain.DataAnalysisMinIdeas, domain.DataAnalysisMaxIdeas},
		{domain.IdeaCategoryBlogPost, domain.BlogPostMinIdeas, domain.BlogPostMaxIdeas},
		{domain.IdeaCategoryProduct, domain.ProductMinIdeas, domain.ProductMaxIdeas},
	}

	var violations []domain.Violation
	for _, b := range bounds {
		got := countBullets(categories[b.name])
		if got < b.min || got > b.max {
			violations = append(violations, domain.IdeaCountOutOfRange(b.name, got, b.min, b.max))
		}
	}
	return violations
}

// parseSections splits the body on "## " headings. Required headings are
// stored under their canonical names, matched case-insensitively; anything
// else keeps the heading text the model wrote.
func parseSections(rawText string) map[string]string {
	sections := map[string]string{}
	var current string
	var buf strings.Builder

	flush := func() {
		if current != "" {
			if _, exists := sections[current]; !exists {
				sections[current] = buf.String()
			}
		}
		buf.Reset()
	}

	for _, line := range strings.Split(rawText, "\n") {
		if name, ok := headingName(line, "## "); ok {
			flush()
			current = canonicalSection(name)
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()

	return sections
}

func parseSubSections(content string) map[string]string {
	subs := map[string]string{}
	var current string
	var buf strings.Builder

	flush := func() {
		if current != "" {
			if _, exists := subs[current]; !exists {
				subs[current] = buf.String()
			}
		}
		buf.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if name, ok := headingName(line, "### "); ok {
			flush()
			current = canonicalCategory(name)
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()

	return subs
}

func headingName(line, prefix string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, prefix)), true
}

func canonicalSection(name string) string {
	for _, known := range domain.RequiredSections() {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

func canonicalCategory(name string) string {
	for _, known := range []string{
		domain.IdeaCategoryDataAnalysis,
		domain.IdeaCategoryBlogPost,
		domain.IdeaCategoryProduct,
	} {
		if strings.EqualFold(name, known) {
			return known
		}
	}
	return name
}

func countBullets(content string) int {
	return len(bulletExpr.FindAllString(content, -1))
}
