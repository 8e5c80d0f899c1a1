package domain

// Section names and bounds of the report contract. The prompt assembler
// instructs the model with these and the validator enforces them, so they
// live in one place.
const (
	SectionExecutiveSummary = "Executive Summary"
	SectionArticleSummaries = "Article Summaries"
	SectionIdeaStarters     = "Idea Starters"

	IdeaCategoryDataAnalysis = "Data Analysis Ideas"
	IdeaCategoryBlogPost     = "Blog Post Ideas"
	IdeaCategoryProduct      = "Product Ideas"
)

const (
	ExecutiveSummaryMinBullets = 3
	ExecutiveSummaryMaxBullets = 6

	DataAnalysisMinIdeas = 2
	DataAnalysisMaxIdeas = 4
	BlogPostMinIdeas     = 2
	BlogPostMaxIdeas     = 4
	ProductMinIdeas      = 1
	ProductMaxIdeas      = 3
)

// RequiredSections lists the top-level headings every report must carry,
// in contract order.
func RequiredSections() []string {
	return []string{SectionExecutiveSummary, SectionArticleSummaries, SectionIdeaStarters}
}
