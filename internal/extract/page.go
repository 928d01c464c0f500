package extract

import (
	"strings"

	"newsagent/internal/keywords"
	"newsagent/internal/models"
)

// PageSource describes one configured web page to extract from.
type PageSource struct {
	Name     string
	URL      string
	Category string
	Limit    int
	// Label, when set, replaces keyword matching with a fixed single-element
	// keyword label for every item from this page.
	Label string
}

// pageStrategy pairs a predicate on the source with a section extractor.
// Strategies are evaluated in order; the first match wins.
type pageStrategy struct {
	match   func(src PageSource) bool
	extract func(markdown string, src PageSource, limit int) []models.Section
}

var pageStrategies = []pageStrategy{
	{
		match: func(src PageSource) bool { return strings.Contains(src.URL, "github.com/trending") },
		extract: func(markdown string, _ PageSource, limit int) []models.Section {
			return TrendingRepos(markdown, limit)
		},
	},
	{
		match: func(src PageSource) bool { return strings.Contains(src.URL, "atomm.com") },
		extract: func(markdown string, _ PageSource, limit int) []models.Section {
			return BlogPosts(markdown, limit)
		},
	},
	{
		match: func(src PageSource) bool { return src.Category == "crowdfunding" },
		extract: func(markdown string, src PageSource, limit int) []models.Section {
			// Fetch extra candidates; keyword filtering trims the list after.
			return CrowdfundingProjects(markdown, src.URL, limit*2)
		},
	},
}

// PageItems turns a scraped page's markdown into news items. A site-specific
// strategy is chosen from the source URL/category; otherwise the markdown is
// split into sections, and as a last resort the whole page becomes one item.
// The returned items never share a URL.
func PageItems(markdown string, src PageSource, kws []string) []models.NewsItem {
	limit := src.Limit
	if limit <= 0 {
		limit = 5
	}

	for _, strategy := range pageStrategies {
		if strategy.match(src) {
			return sectionItems(strategy.extract(markdown, src, limit), src, kws, false)
		}
	}

	sections := SplitSections(markdown, limit)
	if len(sections) > 0 {
		return sectionItems(sections, src, kws, true)
	}

	// Whole page as a single item.
	title := TitleFromMarkdown(markdown)
	if title == "" {
		title = src.Name
	}
	item, ok := buildItem(title, src.URL, markdown, CollapseWhitespace(markdown), src, kws)
	if !ok {
		return nil
	}
	return []models.NewsItem{item}
}

// sectionItems converts extracted sections into keyword-filtered items.
// asDocument re-wraps the section under its heading, matching the layout the
// section came from.
func sectionItems(sections []models.Section, src PageSource, kws []string, asDocument bool) []models.NewsItem {
	var items []models.NewsItem
	seen := make(map[string]struct{})

	for _, section := range sections {
		title := section.Title
		if title == "" {
			title = src.Name
		}
		url := section.URL
		if url == "" {
			url = src.URL
		}
		if _, ok := seen[url]; ok {
			continue
		}

		content := section.Content
		if asDocument {
			content = "## " + section.Title + "\n\n" + section.Content
		}

		item, ok := buildItem(title, url, content, CollapseWhitespace(content), src, kws)
		if !ok {
			continue
		}
		seen[url] = struct{}{}
		items = append(items, item)
	}
	return items
}

func buildItem(title, url, content, matchText string, src PageSource, kws []string) (models.NewsItem, bool) {
	matched := []string{src.Label}
	if src.Label == "" {
		matched = keywords.Match(title+" "+matchText, kws)
		if len(matched) == 0 {
			return models.NewsItem{}, false
		}
	}

	item := models.NewItem(title, url)
	item.SourceName = src.Name
	item.SourceType = models.SourceWebPage
	item.Content = models.Truncate(content, models.ContentCap)
	item.FullContent = content
	item.KeywordsMatched = matched
	if src.Category != "" {
		item.Category = src.Category
	}
	return item, true
}
