package extract

import (
	"regexp"
	"strings"

	"newsagent/internal/models"
)

var (
	githubRepoLink = regexp.MustCompile(`\[([^\]]+)\]\((https://github\.com/[a-zA-Z0-9_-]+/[a-zA-Z0-9_.-]+)\)`)

	blogPostURL = regexp.MustCompile(`\]\((https://www\.atomm\.com/blog/\d+-[^)]+)\)`)
	boldTitle   = regexp.MustCompile(`\[\*\*([^*\]]+)\*\*`)
	blogMeta    = regexp.MustCompile(`(Announcement|Tutorials)(\d{4}/\d{2}/\d{2})`)

	kickstarterLink     = regexp.MustCompile(`\[([^\]]+)\]\((https://www\.kickstarter\.com/projects/[^)]+)\)`)
	indiegogoHeading    = regexp.MustCompile(`###\s*\[([^\]]+)\]\((https://www\.indiegogo\.com/en/projects/[^)]+)\)`)
	indiegogoLink       = regexp.MustCompile(`\[([^\]]+)\]\((https://www\.indiegogo\.com/en/projects/[^/)]+/[^?\s)]+[^)]*)\)`)
	refParam            = regexp.MustCompile(`[?&]ref=.*$`)
	numericTitle        = regexp.MustCompile(`^[\d.,]+[kKmM]?$`)
	crowdfundNavTitles  = []string{"project we love", "view project", "back this project", "learn more"}
	githubNavTitles     = []string{"sponsor", "fork", "star", "watch"}
)

// TrendingRepos extracts repositories from a GitHub-trending-style page.
// Repo links have exactly two path segments; navigation and sponsor links are
// skipped and the title is rebuilt from the URL.
func TrendingRepos(markdown string, limit int) []models.Section {
	if limit <= 0 {
		limit = 5
	}

	var repos []models.Section
	seen := make(map[string]struct{})
	for _, m := range githubRepoLink.FindAllStringSubmatchIndex(markdown, -1) {
		if len(repos) >= limit {
			break
		}
		rawTitle := markdown[m[2]:m[3]]
		url := markdown[m[4]:m[5]]

		if strings.Contains(url, "/trending") ||
			strings.Contains(url, "spoken_language") ||
			strings.Contains(url, "/sponsors/") ||
			strings.Contains(url, "#") {
			continue
		}
		if isNavWord(rawTitle, githubNavTitles) {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		repos = append(repos, models.Section{
			Title:   repoName(url),
			Content: firstProseLine(markdown, m[1], 500, 300),
			URL:     url,
		})
	}
	return repos
}

func repoName(url string) string {
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}
	return url
}

// BlogPosts extracts posts from pages where the bold title appears before the
// post URL, searching backwards from each URL for the closest [**Title**.
func BlogPosts(markdown string, limit int) []models.Section {
	if limit <= 0 {
		limit = 5
	}

	var posts []models.Section
	for _, m := range blogPostURL.FindAllStringSubmatchIndex(markdown, -1) {
		if len(posts) >= limit {
			break
		}
		url := markdown[m[2]:m[3]]

		start := m[2] - 2000
		if start < 0 {
			start = 0
		}
		before := markdown[start:m[2]]

		titles := boldTitle.FindAllStringSubmatchIndex(before, -1)
		if titles == nil {
			continue
		}
		last := titles[len(titles)-1]
		title := strings.TrimSpace(before[last[2]:last[3]])

		if len(title) < 10 || isNavWordContains(title, []string{"explore", "view all", "see more", "all "}) {
			continue
		}

		content := ""
		if meta := blogMeta.FindStringSubmatch(before[last[1]:]); meta != nil {
			content = meta[1] + " - " + meta[2]
		}

		posts = append(posts, models.Section{Title: title, Content: content, URL: url})
	}
	return posts
}

// CrowdfundingProjects extracts individual projects from Kickstarter and
// Indiegogo pages, keyed off the source URL. Duplicate detection strips
// ref/tracking query params first.
func CrowdfundingProjects(markdown, sourceURL string, limit int) []models.Section {
	if limit <= 0 {
		limit = 5
	}

	switch {
	case strings.Contains(sourceURL, "kickstarter.com"):
		return kickstarterProjects(markdown, limit)
	case strings.Contains(sourceURL, "indiegogo.com"):
		return indiegogoProjects(markdown, limit)
	default:
		return nil
	}
}

func kickstarterProjects(markdown string, limit int) []models.Section {
	var projects []models.Section
	seen := make(map[string]struct{})
	for _, m := range kickstarterLink.FindAllStringSubmatchIndex(markdown, -1) {
		title := strings.TrimSpace(markdown[m[2]:m[3]])
		url := markdown[m[4]:m[5]]

		base := refParam.ReplaceAllString(url, "")
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}

		if isNavWord(title, crowdfundNavTitles) || numericTitle.MatchString(title) || len(title) < minTitleLen {
			continue
		}

		projects = append(projects, models.Section{
			Title:   title,
			Content: fundingContext(markdown, m[1]),
			URL:     url,
		})
		if len(projects) >= limit {
			break
		}
	}
	return projects
}

func indiegogoProjects(markdown string, limit int) []models.Section {
	// Search result pages use heading links with cleaner titles; fall back to
	// plain project links for the homepage layout.
	matches := indiegogoHeading.FindAllStringSubmatchIndex(markdown, -1)
	if matches == nil {
		matches = indiegogoLink.FindAllStringSubmatchIndex(markdown, -1)
	}

	var projects []models.Section
	seen := make(map[string]struct{})
	for _, m := range matches {
		title := strings.TrimSpace(markdown[m[2]:m[3]])
		url := markdown[m[4]:m[5]]

		if strings.Contains(url, "/projects/search") {
			continue
		}
		base := refParam.ReplaceAllString(url, "")
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}

		if numericTitle.MatchString(title) || len(title) < minTitleLen {
			continue
		}

		projects = append(projects, models.Section{
			Title:   title,
			Content: trailingContext(markdown, m[1], 300, 2, 200),
			URL:     url,
		})
		if len(projects) >= limit {
			break
		}
	}
	return projects
}

// fundingContext pulls the first couple of meaningful lines after a project
// link, preferring funding-status lines.
func fundingContext(markdown string, offset int) string {
	end := offset + 500
	if end > len(markdown) {
		end = len(markdown)
	}

	var kept []string
	for _, line := range strings.Split(markdown[offset:end], "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") || strings.HasPrefix(line, "!") {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "funded") || strings.Contains(lower, "days left") || len(line) > 30 {
			kept = append(kept, line)
			if len(kept) >= 2 {
				break
			}
		}
	}
	return models.Truncate(strings.Join(kept, " "), 300)
}

// firstProseLine returns the first non-link, non-image line after offset.
func firstProseLine(markdown string, offset, window, maxLen int) string {
	end := offset + window
	if end > len(markdown) {
		end = len(markdown)
	}
	for _, line := range strings.Split(markdown[offset:end], "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "!") {
			return models.Truncate(line, maxLen)
		}
	}
	return ""
}

func isNavWord(title string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	for _, w := range words {
		if lower == w {
			return true
		}
	}
	return false
}

func isNavWordContains(title string, words []string) bool {
	lower := strings.ToLower(title)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
