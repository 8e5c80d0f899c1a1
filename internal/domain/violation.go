package domain

import "fmt"

// ViolationKind enumerates the machine-readable ways a completion can fail
// the report contract.
type ViolationKind string

const (
	ViolationMissingSection        ViolationKind = "missing_section"
	ViolationEmptySection          ViolationKind = "empty_section"
	ViolationBulletCountOutOfRange ViolationKind = "bullet_count_out_of_range"
	ViolationMissingArticle        ViolationKind = "missing_article"
	ViolationFabricatedSource      ViolationKind = "fabricated_source"
	ViolationDuplicateArticle      ViolationKind = "duplicate_article_entry"
	ViolationIdeaCountOutOfRange   ViolationKind = "idea_count_out_of_range"
	ViolationWordBudgetExceeded    ViolationKind = "word_budget_exceeded"
)

// Violation describes one contract failure with enough detail to drive a
// repair prompt. Message is what the model sees, verbatim.
type Violation struct {
	Kind    ViolationKind
	Subject string
	Message string
}

func (v Violation) String() string {
	return v.Message
}

// MissingSection reports an absent required top-level heading.
func MissingSection(name string) Violation {
	return Violation{
		Kind:    ViolationMissingSection,
		Subject: name,
		Message: fmt.Sprintf("required section %q is missing", name),
	}
}

// EmptySection reports a heading that is present but has no content.
func EmptySection(name string) Violation {
	return Violation{
		Kind:    ViolationEmptySection,
		Subject: name,
		Message: fmt.Sprintf("section %q is present but empty", name),
	}
}

// BulletCountOutOfRange reports a bullet list outside its required bounds.
func BulletCountOutOfRange(section string, got, min, max int) Violation {
	return Violation{
		Kind:    ViolationBulletCountOutOfRange,
		Subject: section,
		Message: fmt.Sprintf("section %q has %d bullet items, expected between %d and %d", section, got, min, max),
	}
}

// MissingArticle reports a batch article with no entry in Article Summaries.
func MissingArticle(url string) Violation {
	return Violation{
		Kind:    ViolationMissingArticle,
		Subject: url,
		Message: fmt.Sprintf("article %s has no entry in the Article Summaries section", url),
	}
}

// FabricatedSource reports a summary URL that does not belong to the batch.
func FabricatedSource(url string) Violation {
	return Violation{
		Kind:    ViolationFabricatedSource,
		Subject: url,
		Message: fmt.Sprintf("the Article Summaries section references %s, which is not one of the provided articles; remove it", url),
	}
}

// DuplicateArticle reports a batch URL summarized more than once.
func DuplicateArticle(url string, count int) Violation {
	return Violation{
		Kind:    ViolationDuplicateArticle,
		Subject: url,
		Message: fmt.Sprintf("article %s appears %d times in the Article Summaries section, expected exactly one entry", url, count),
	}
}

// IdeaCountOutOfRange reports an Idea Starters sub-category outside bounds.
func IdeaCountOutOfRange(category string, got, min, max int) Violation {
	return Violation{
		Kind:    ViolationIdeaCountOutOfRange,
		Subject: category,
		Message: fmt.Sprintf("Idea Starters category %q has %d items, expected between %d and %d", category, got, min, max),
	}
}

// WordBudgetExceeded reports a body that overruns the allowed word count.
func WordBudgetExceeded(actual, limit int) Violation {
	return Violation{
		Kind:    ViolationWordBudgetExceeded,
		Subject: "word budget",
		Message: fmt.Sprintf("the report is %d words long, the limit is %d words; shorten it", actual, limit),
	}
}

// ValidationResult is the validator's verdict on one completion.
type ValidationResult struct {
	OK         bool
	Violations []Violation
	Sections   map[string]string
}
