package models

import (
	"time"
	"unicode/utf8"
)

// SourceType identifies the family a news item was collected from.
type SourceType string

const (
	SourceRSS     SourceType = "rss"
	SourceWebPage SourceType = "web_page"
	SourceSocial  SourceType = "social_media"
	SourceNewsAPI SourceType = "newsapi"
)

// Sentiment classification assigned by the downstream summarizer.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ContentCap is the display truncation limit for NewsItem.Content.
const ContentCap = 2000

// NewsItem is a single unit of aggregated content. The URL is the sole
// identity used for duplicate detection across the whole system.
type NewsItem struct {
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	SourceName      string     `json:"source_name"`
	SourceType      SourceType `json:"source_type"`
	Content         string     `json:"content"`
	FullContent     string     `json:"full_content"`
	Summary         string     `json:"summary,omitempty"`
	Sentiment       Sentiment  `json:"sentiment,omitempty"`
	KeywordsMatched []string   `json:"keywords_matched"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	FetchedAt       time.Time  `json:"fetched_at"`
	Category        string     `json:"category"`
}

// NewItem fills the defaults every extractor shares.
func NewItem(title, url string) NewsItem {
	return NewsItem{
		Title:     title,
		URL:       url,
		Sentiment: SentimentNeutral,
		FetchedAt: time.Now(),
		Category:  "general",
	}
}

// Truncate caps s at the display limit, backing up so the cut never lands
// inside a multi-byte rune.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// Section is an intermediate produced by markdown splitting, consumed
// immediately to build a NewsItem. Not persisted.
type Section struct {
	Title   string
	Content string
	URL     string
}

// Result carries the items one source produced plus the warnings collected
// along the way. Warnings are accumulated, never raised as fatal errors.
type Result struct {
	Items    []NewsItem
	Warnings []string
}

// Warn appends a warning string.
func (r *Result) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
