package extract

import (
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsagent/internal/keywords"
	"newsagent/internal/models"
)

// feedContentCap is the display truncation limit for feed entries.
const feedContentCap = 1000

// FeedSource describes one configured RSS feed.
type FeedSource struct {
	Name     string
	URL      string
	Category string
	Limit    int
	Label    string
}

var feedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
}

// EntryDate picks the best available date for a feed entry: the parsed
// published date, the parsed updated date, then the raw date strings.
func EntryDate(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed
	}
	for _, raw := range []string{entry.Published, entry.Updated} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		for _, layout := range feedDateLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				return &ts
			}
		}
	}
	return nil
}

// FeedItems maps feed entries to news items. Entries are sorted newest first
// (dateless entries last) before the per-source limit is applied; entry HTML
// is stripped and the entry must match a keyword unless the source carries a
// fixed label.
func FeedItems(feed *gofeed.Feed, src FeedSource, kws []string) []models.NewsItem {
	limit := src.Limit
	if limit <= 0 {
		limit = 10
	}

	type dated struct {
		entry *gofeed.Item
		at    *time.Time
	}
	entries := make([]dated, 0, len(feed.Items))
	for _, entry := range feed.Items {
		entries = append(entries, dated{entry: entry, at: EntryDate(entry)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		switch {
		case entries[i].at == nil:
			return false
		case entries[j].at == nil:
			return true
		default:
			return entries[i].at.After(*entries[j].at)
		}
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	var items []models.NewsItem
	seen := make(map[string]struct{})
	for _, e := range entries {
		entry := e.entry

		raw := entry.Description
		if raw == "" {
			raw = entry.Content
		}
		content := CleanHTML(raw)

		matched := []string{src.Label}
		if src.Label == "" {
			matched = keywords.Match(entry.Title+" "+content, kws)
			if len(matched) == 0 {
				continue
			}
		}

		if _, ok := seen[entry.Link]; ok {
			continue
		}
		seen[entry.Link] = struct{}{}

		item := models.NewItem(entry.Title, entry.Link)
		item.SourceName = src.Name
		item.SourceType = models.SourceRSS
		item.Content = models.Truncate(content, feedContentCap)
		item.FullContent = content
		item.KeywordsMatched = matched
		item.PublishedAt = e.at
		if src.Category != "" {
			item.Category = src.Category
		}
		items = append(items, item)
	}
	return items
}
