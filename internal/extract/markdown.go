package extract

import (
	"regexp"
	"strings"

	"newsagent/internal/models"
)

var (
	headingLine = regexp.MustCompile(`^(#{2,3})\s+(.+)$`)
	boldLink    = regexp.MustCompile(`\[\*\*([^\]]+)\*\*[^\]]*\]\((https?://[^)]+)\)`)
)

// navTitles are substrings that mark a bold-link title as navigation rather
// than an article.
var navTitles = []string{"explore", "view all", "see more", "learn more", "read more"}

const minTitleLen = 5

// TitleFromMarkdown returns the first h1/h2 heading, falling back to the
// first non-empty line.
func TitleFromMarkdown(markdown string) string {
	lines := strings.Split(markdown, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
		if rest, ok := strings.CutPrefix(line, "## "); ok {
			return strings.TrimSpace(rest)
		}
	}
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return models.Truncate(trimmed, 100)
		}
	}
	return "Untitled"
}

// SplitSections breaks a scraped page's markdown into article-sized sections.
// Level-2/3 headings take priority; the bold-link-list strategy is only tried
// when no headings are present.
func SplitSections(markdown string, limit int) []models.Section {
	if limit <= 0 {
		limit = 5
	}

	sections := splitByHeadings(markdown, limit)
	if len(sections) > 0 {
		return sections
	}
	return splitByBoldLinks(markdown, limit)
}

func splitByHeadings(markdown string, limit int) []models.Section {
	var sections []models.Section
	var current *models.Section
	var contentLines []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(contentLines, "\n"))
		if current.Content != "" || current.Title != "" {
			sections = append(sections, *current)
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			contentLines = append(contentLines, line)
			continue
		}
		flush()
		if len(sections) >= limit {
			return sections[:limit]
		}
		current = &models.Section{Title: strings.TrimSpace(m[2])}
		contentLines = nil
	}
	if len(sections) < limit {
		flush()
	}

	if len(sections) > limit {
		sections = sections[:limit]
	}
	return sections
}

func splitByBoldLinks(markdown string, limit int) []models.Section {
	matches := boldLink.FindAllStringSubmatchIndex(markdown, -1)
	if matches == nil {
		return nil
	}

	var sections []models.Section
	seen := make(map[string]struct{})
	for _, m := range matches {
		title := strings.TrimSpace(markdown[m[2]:m[3]])
		url := markdown[m[4]:m[5]]

		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		if len(title) < minTitleLen || isNavTitle(title) {
			continue
		}

		sections = append(sections, models.Section{
			Title:   title,
			Content: trailingContext(markdown, m[1], 500, 3, 300),
			URL:     url,
		})
		if len(sections) >= limit {
			break
		}
	}
	return sections
}

func isNavTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, nav := range navTitles {
		if strings.Contains(lower, nav) {
			return true
		}
	}
	return false
}

// trailingContext collects up to maxLines of prose following offset, skipping
// image and link-only lines, capped at maxLen bytes.
func trailingContext(markdown string, offset, window, maxLines, maxLen int) string {
	end := offset + window
	if end > len(markdown) {
		end = len(markdown)
	}
	context := markdown[offset:end]

	var kept []string
	for _, line := range strings.Split(context, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "!") {
			continue
		}
		if strings.Contains(strings.ToLower(line), "cover") {
			continue
		}
		kept = append(kept, line)
		if len(kept) >= maxLines {
			break
		}
	}
	return models.Truncate(strings.Join(kept, " "), maxLen)
}
