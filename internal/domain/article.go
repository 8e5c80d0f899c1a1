package domain

import "time"

// RawArticle is what a feed collaborator hands us. The shape is untrusted:
// fields may be missing, bodies may carry markup, URLs may repeat across
// feeds. The normalizer decides what survives.
type RawArticle struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
	Body        string
}

// Article is a normalized record ready for prompt assembly. Excerpt is
// plain text, truncated at a word boundary by the normalizer and never
// regenerated later in the pipeline.
type Article struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
	Excerpt     string
}

// Batch is the ordered, URL-unique, size-capped sequence of articles that
// feeds one report run. Ordering is reverse-chronological with URL as the
// tiebreak, so the same input always produces the same prompt.
type Batch struct {
	Articles []Article
}

// Empty reports whether the batch holds no articles.
func (b Batch) Empty() bool {
	return len(b.Articles) == 0
}

// URLs returns the article URLs in batch order.
func (b Batch) URLs() []string {
	urls := make([]string, 0, len(b.Articles))
	for _, a := range b.Articles {
		urls = append(urls, a.URL)
	}
	return urls
}

// URLSet returns the batch URLs as a membership set.
func (b Batch) URLSet() map[string]struct{} {
	set := make(map[string]struct{}, len(b.Articles))
	for _, a := range b.Articles {
		set[a.URL] = struct{}{}
	}
	return set
}
