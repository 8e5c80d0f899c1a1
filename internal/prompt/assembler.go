package prompt

import (
	"fmt"
	"strings"

	"researchdigest/internal/domain"
)

// Request is one fully rendered prompt. Immutable once constructed; a
// repair request is a new value rebuilt from the original prompt text.
type Request struct {
	DateLabel     string
	ArticlesBlock string
	WordBudget    int
	Text          string

	// base is the original synthesis prompt without any violations block.
	// Repairs always extend base, never a previous repair, so each round
	// lists only the violations still outstanding.
	base string
}

// Assembler renders prompt text from a batch. Rendering is pure: identical
// inputs always produce byte-identical text, which is what makes prompt
// output reproducible and testable.
type Assembler struct{}

// New returns a prompt assembler.
func New() Assembler {
	return Assembler{}
}

// Build renders the initial synthesis prompt for a batch.
func (Assembler) Build(batch domain.Batch, dateLabel string, wordBudget int) Request {
	block := articlesBlock(batch)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are preparing a Markdown research report for a technical product manager, dated %s.\n\n", dateLabel)
	sb.WriteString("Use only the articles listed below. Do not invent articles, URLs, or sources; every claim must be traceable to one of the provided excerpts.\n\n")
	sb.WriteString("Articles:\n\n")
	sb.WriteString(block)
	sb.WriteString("\nWrite the report in Markdown with exactly this structure:\n\n")
	fmt.Fprintf(&sb, "# Daily Research & Idea Report - %s\n\n", dateLabel)
	fmt.Fprintf(&sb, "## %s\n", domain.SectionExecutiveSummary)
	fmt.Fprintf(&sb, "Between %d and %d bullet points covering the most important developments across all articles.\n\n",
		domain.ExecutiveSummaryMinBullets, domain.ExecutiveSummaryMaxBullets)
	fmt.Fprintf(&sb, "## %s\n", domain.SectionArticleSummaries)
	sb.WriteString("One \"### <article title>\" block per article above, in the same order. Each block starts with two lines:\n")
	sb.WriteString("- Source: <the article source>\n")
	sb.WriteString("- URL: <the article URL>\n")
	sb.WriteString("followed by a summary of 1-3 sentences. Cover every listed article exactly once and no others.\n\n")
	fmt.Fprintf(&sb, "## %s\n", domain.SectionIdeaStarters)
	fmt.Fprintf(&sb, "### %s\n%d-%d bullet points.\n", domain.IdeaCategoryDataAnalysis, domain.DataAnalysisMinIdeas, domain.DataAnalysisMaxIdeas)
	fmt.Fprintf(&sb, "### %s\n%d-%d bullet points.\n", domain.IdeaCategoryBlogPost, domain.BlogPostMinIdeas, domain.BlogPostMaxIdeas)
	fmt.Fprintf(&sb, "### %s\n%d-%d bullet points.\n\n", domain.IdeaCategoryProduct, domain.ProductMinIdeas, domain.ProductMaxIdeas)
	fmt.Fprintf(&sb, "Keep the whole report under %d words. Output only the report Markdown, no commentary.\n", wordBudget)

	text := sb.String()
	return Request{
		DateLabel:     dateLabel,
		ArticlesBlock: block,
		WordBudget:    wordBudget,
		Text:          text,
		base:          text,
	}
}

// BuildRepair extends the original request with the violations the
// validator currently reports, instructing the model to fix them and
// nothing else. Violations resolved by an earlier repair do not reappear.
func (Assembler) BuildRepair(prev Request, violations []domain.Violation) Request {
	base := prev.base
	if base == "" {
		base = prev.Text
	}

	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\nYour previous report violated the required structure. Fix the following problems and leave everything else unchanged:\n\n")
	for i, v := range violations {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, v.String())
	}
	sb.WriteString("\nOutput the full corrected report.\n")

	return Request{
		DateLabel:     prev.DateLabel,
		ArticlesBlock: prev.ArticlesBlock,
		WordBudget:    prev.WordBudget,
		Text:          sb.String(),
		base:          base,
	}
}

func articlesBlock(batch domain.Batch) string {
	var sb strings.Builder
	for i, a := range batch.Articles {
		fmt.Fprintf(&sb, "%d. Title: %s\n", i+1, escapeMarkdown(a.Title))
		fmt.Fprintf(&sb, "   Source: %s\n", escapeMarkdown(a.Source))
		fmt.Fprintf(&sb, "   Published: %s\n", a.PublishedAt.UTC().Format("2006-01-02 15:04"))
		fmt.Fprintf(&sb, "   URL: %s\n", a.URL)
		fmt.Fprintf(&sb, "   Excerpt: %s\n\n", escapeMarkdown(a.Excerpt))
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"#", `\#`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
)

// escapeMarkdown neutralizes control characters in untrusted field values
// so a crafted title cannot open a fake heading inside the prompt.
func escapeMarkdown(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return markdownEscaper.Replace(s)
}
