package feed

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"researchdigest/internal/domain"
	"researchdigest/internal/ports"
)

const maxFeedBytes = 4 << 20

// RSSSource fetches configured RSS/Atom feeds and maps entries to raw
// article records. A feed that fails to fetch or parse is logged and
// skipped; one broken feed must not starve the whole report.
type RSSSource struct {
	client *http.Client
	feeds  []string
	logger *slog.Logger
}

var _ ports.ArticleSource = (*RSSSource)(nil)

// NewRSSSource wires an HTTP client over the configured feed URLs.
func NewRSSSource(client *http.Client, feeds []string, logger *slog.Logger) *RSSSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RSSSource{client: client, feeds: feeds, logger: logger}
}

// Fetch collects entries from every feed. The result preserves feed order
// and is otherwise untrusted; normalization happens downstream.
func (s *RSSSource) Fetch(ctx context.Context) ([]domain.RawArticle, error) {
	if len(s.feeds) == 0 {
		return nil, fmt.Errorf("no feeds configured")
	}

	var articles []domain.RawArticle
	for _, feedURL := range s.feeds {
		items, err := s.fetchFeed(ctx, feedURL)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("skipping feed", "feed", feedURL, "error", err)
			continue
		}
		articles = append(articles, items...)
	}

	return articles, nil
}

func (s *RSSSource) fetchFeed(ctx context.Context, feedURL string) ([]domain.RawArticle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "researchdigest/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed: %w", err)
	}

	articles, err := decodeFeed(raw, feedURL)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("feed fetched", "feed", feedURL, "items", len(articles))
	return articles, nil
}

type rssDocument struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

type atomDocument struct {
	Title   string `xml:"title"`
	Entries []struct {
		Title string `xml:"title"`
		Links []struct {
			Rel  string `xml:"rel,attr"`
			Href string `xml:"href,attr"`
		} `xml:"link"`
		Summary   string `xml:"summary"`
		Content   string `xml:"content"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
	} `xml:"entry"`
}

func decodeFeed(raw []byte, feedURL string) ([]domain.RawArticle, error) {
	if bytes.Contains(raw[:min(len(raw), 512)], []byte("<feed")) {
		return decodeAtom(raw, feedURL)
	}
	return decodeRSS(raw, feedURL)
}

func decodeRSS(raw []byte, feedURL string) ([]domain.RawArticle, error) {
	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	source := strings.TrimSpace(doc.Channel.Title)
	if source == "" {
		source = feedURL
	}

	articles := make([]domain.RawArticle, 0, len(doc.Channel.Items))
	for _, item := range doc.Channel.Items {
		articles = append(articles, domain.RawArticle{
			Title:       item.Title,
			Source:      source,
			URL:         strings.TrimSpace(item.Link),
			PublishedAt: parseFeedTime(item.PubDate),
			Body:        item.Description,
		})
	}
	return articles, nil
}

func decodeAtom(raw []byte, feedURL string) ([]domain.RawArticle, error) {
	var doc atomDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse atom: %w", err)
	}

	source := strings.TrimSpace(doc.Title)
	if source == "" {
		source = feedURL
	}

	articles := make([]domain.RawArticle, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		link := ""
		for _, l := range entry.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}

		body := entry.Content
		if strings.TrimSpace(body) == "" {
			body = entry.Summary
		}

		published := entry.Published
		if published == "" {
			published = entry.Updated
		}

		articles = append(articles, domain.RawArticle{
			Title:       entry.Title,
			Source:      source,
			URL:         strings.TrimSpace(link),
			PublishedAt: parseFeedTime(published),
			Body:        body,
		})
	}
	return articles, nil
}

var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
}

// parseFeedTime is best-effort; an unparseable date yields the zero time
// and the article simply sorts last.
func parseFeedTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
