// Package report renders the daily markdown report and writes it to the
// output directory.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"newsagent/internal/models"
)

// categoryOrder fixes the section order; unknown categories sort last.
var categoryOrder = []string{
	"tech_news",
	"research",
	"company_blog",
	"tech_community",
	"social",
	"developer",
	"crowdfunding",
	"news",
	"general",
}

// Options tune report rendering.
type Options struct {
	IncludeSourceLinks bool
	// Now overrides the generation timestamp; zero means time.Now.
	Now time.Time
}

// Generate renders the full markdown report: header, stats, items grouped by
// category, and a processing-notes section for warnings.
func Generate(items []models.NewsItem, keywords, warnings []string, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder

	b.WriteString("# Daily News Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", now.Format("2006-01-02 15:04:05"))

	if len(keywords) > 0 {
		fmt.Fprintf(&b, "**Keywords:** %s\n\n", strings.Join(keywords, ", "))
	}

	writeSummary(&b, items)

	grouped := groupByCategory(items)
	for _, category := range sortedCategories(grouped) {
		fmt.Fprintf(&b, "## %s\n\n", displayCategory(category))

		sorted := grouped[category]
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := sentimentRank(sorted[i].Sentiment), sentimentRank(sorted[j].Sentiment)
			if ri != rj {
				return ri < rj
			}
			return laterDate(sorted[i].PublishedAt, sorted[j].PublishedAt)
		})

		for _, item := range sorted {
			writeItem(&b, item, opts.IncludeSourceLinks)
		}
	}

	if len(warnings) > 0 {
		b.WriteString("## Processing Notes\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- ⚠️ %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Save writes the report into dir under a timestamped name and returns the
// full path.
func Save(markdown, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	name := fmt.Sprintf("news_report_%s.md", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func writeSummary(b *strings.Builder, items []models.NewsItem) {
	var positive, negative, neutral int
	sourceCounts := make(map[string]int)
	for _, item := range items {
		switch item.Sentiment {
		case models.SentimentPositive:
			positive++
		case models.SentimentNegative:
			negative++
		default:
			neutral++
		}
		sourceCounts[string(item.SourceType)]++
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- **Total Articles:** %d\n", len(items))
	fmt.Fprintf(b, "- **Positive:** 🟢 %d\n", positive)
	fmt.Fprintf(b, "- **Negative:** 🔴 %d\n", negative)
	fmt.Fprintf(b, "- **Neutral:** 🟡 %d\n\n", neutral)

	b.WriteString("### Sources\n\n")
	types := make([]string, 0, len(sourceCounts))
	for st := range sourceCounts {
		types = append(types, st)
	}
	sort.Strings(types)
	for _, st := range types {
		fmt.Fprintf(b, "- **%s:** %d items\n", displayCategory(st), sourceCounts[st])
	}
	b.WriteString("\n---\n\n")
}

func writeItem(b *strings.Builder, item models.NewsItem, includeLinks bool) {
	if includeLinks && item.URL != "" {
		fmt.Fprintf(b, "### [%s](%s)\n", item.Title, item.URL)
	} else {
		fmt.Fprintf(b, "### %s\n", item.Title)
	}

	meta := []string{
		fmt.Sprintf("**Source:** %s", item.SourceName),
		fmt.Sprintf("**Sentiment:** %s", sentimentBadge(item.Sentiment)),
	}
	if item.PublishedAt != nil {
		meta = append(meta, fmt.Sprintf("**Published:** %s", item.PublishedAt.Format("2006-01-02 15:04")))
	}
	if len(item.KeywordsMatched) > 0 {
		shown := item.KeywordsMatched
		if len(shown) > 3 {
			shown = shown[:3]
		}
		meta = append(meta, fmt.Sprintf("**Keywords:** %s", strings.Join(shown, ", ")))
	}
	b.WriteString(strings.Join(meta, " | "))
	b.WriteString("\n\n")

	if item.Summary != "" {
		fmt.Fprintf(b, "> %s\n\n", item.Summary)
	}

	b.WriteString("---\n\n")
}

func groupByCategory(items []models.NewsItem) map[string][]models.NewsItem {
	grouped := make(map[string][]models.NewsItem)
	for _, item := range items {
		category := item.Category
		if category == "" {
			category = "general"
		}
		grouped[category] = append(grouped[category], item)
	}
	return grouped
}

func sortedCategories(grouped map[string][]models.NewsItem) []string {
	rank := make(map[string]int, len(categoryOrder))
	for i, c := range categoryOrder {
		rank[c] = i
	}

	categories := make([]string, 0, len(grouped))
	for c := range grouped {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		ri, iok := rank[categories[i]]
		rj, jok := rank[categories[j]]
		if !iok {
			ri = len(categoryOrder)
		}
		if !jok {
			rj = len(categoryOrder)
		}
		if ri != rj {
			return ri < rj
		}
		return categories[i] < categories[j]
	})
	return categories
}

func displayCategory(category string) string {
	words := strings.Split(strings.ReplaceAll(category, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// sentimentRank orders positive before neutral before negative.
func sentimentRank(s models.Sentiment) int {
	switch s {
	case models.SentimentPositive:
		return 0
	case models.SentimentNegative:
		return 2
	default:
		return 1
	}
}

func sentimentBadge(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return "🟢 Positive"
	case models.SentimentNegative:
		return "🔴 Negative"
	default:
		return "🟡 Neutral"
	}
}

// laterDate reports whether a is more recent than b; nil dates sort last.
func laterDate(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}
