package extract

import (
	"regexp"
	"strings"
)

var subredditHome = regexp.MustCompile(`^https?://[^/]+/r/[^/]+/?$`)

var nonContentTitle = []*regexp.Regexp{
	regexp.MustCompile(`\| profile\b`),
	regexp.MustCompile(`\| about\b`),
	regexp.MustCompile(`^profile:`),
	regexp.MustCompile(`^about:`),
	regexp.MustCompile(`\(@\w+\)\s*/\s*x$`),
}

var profileContent = []*regexp.Regexp{
	regexp.MustCompile(`^\s*profile page`),
	regexp.MustCompile(`^\s*bio:`),
	regexp.MustCompile(`^\s*follower.* following`),
	regexp.MustCompile(`shows? (?:his|her|their) bio`),
	regexp.MustCompile(`displays? (?:his|her|their) (?:follower|bio)`),
}

// IsTwitterURL reports whether the URL points at X/Twitter.
func IsTwitterURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.Contains(lower, "x.com") || strings.Contains(lower, "twitter.com")
}

// IsProfilePage filters profile and other non-content pages out of social
// search results: tweets must contain /status/, reddit results must be posts
// rather than user or subreddit landing pages.
func IsProfilePage(url, title string) bool {
	urlLower := strings.ToLower(url)
	titleLower := strings.ToLower(title)

	if IsTwitterURL(url) {
		if !strings.Contains(urlLower, "/status/") {
			return true
		}
		if strings.HasSuffix(titleLower, "/ x") || strings.Contains(titleLower, "/ posts / x") {
			return true
		}
	}

	if strings.Contains(urlLower, "reddit.com") {
		if (strings.Contains(urlLower, "/user/") || strings.Contains(urlLower, "/u/")) &&
			!strings.Contains(urlLower, "/comments/") {
			return true
		}
		if subredditHome.MatchString(urlLower) {
			return true
		}
	}

	for _, re := range nonContentTitle {
		if re.MatchString(titleLower) {
			return true
		}
	}
	return false
}

// IsMeaningfulContent rejects results that are too thin to be news or read
// like a profile description.
func IsMeaningfulContent(title, content string) bool {
	if len(title) < 10 || len(content) < 50 {
		return false
	}
	contentLower := strings.ToLower(content)
	for _, re := range profileContent {
		if re.MatchString(contentLower) {
			return false
		}
	}
	return true
}

var tweetSkipLine = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Don't miss what's happening`),
	regexp.MustCompile(`(?i)^People on X are the first to know`),
	regexp.MustCompile(`(?i)^\[Log in\]`),
	regexp.MustCompile(`(?i)^\[Sign up\]`),
	regexp.MustCompile(`(?i)^Sign up`),
	regexp.MustCompile(`(?i)^Create account`),
	regexp.MustCompile(`(?i)^New to X\?`),
	regexp.MustCompile(`(?i)^Trending`),
	regexp.MustCompile(`(?i)^What's happening`),
	regexp.MustCompile(`(?i)^Terms of Service`),
	regexp.MustCompile(`(?i)^Privacy Policy`),
	regexp.MustCompile(`(?i)^Cookie Policy`),
	regexp.MustCompile(`(?i)^Accessibility`),
	regexp.MustCompile(`(?i)^Ads info`),
	regexp.MustCompile(`(?i)^More$`),
	regexp.MustCompile(`(?i)^\[Show more\]`),
	regexp.MustCompile(`(?i)^By signing up`),
	regexp.MustCompile(`(?i)^\d+[KM]?\s*posts?$`),
	regexp.MustCompile(`(?i)^\|$`),
	regexp.MustCompile(`(?i)^Read \d+ replies?$`),
	regexp.MustCompile(`^\d+$`),
}

var tweetSectionMarkers = []string{
	"Trending now",
	"What's happening",
	"New to X?",
	"Terms of Service",
}

var (
	profileLinkLine = regexp.MustCompile(`^\[.*\]\(https://x\.com/\w+\)$`)
	engagementLine  = regexp.MustCompile(`^[\d,.]+[KM]?$`)
)

// CleanTweet strips X.com UI noise (login prompts, trending blocks, footer)
// from scraped tweet content.
func CleanTweet(content string) string {
	var kept []string
	inSkipSection := false

lines:
	for _, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)

		for _, marker := range tweetSectionMarkers {
			if strings.Contains(stripped, marker) {
				inSkipSection = true
				break
			}
		}
		if inSkipSection {
			if strings.HasPrefix(stripped, "Conversation") || strings.HasPrefix(stripped, "Post") {
				inSkipSection = false
			}
			continue
		}

		for _, re := range tweetSkipLine {
			if re.MatchString(stripped) {
				continue lines
			}
		}
		if stripped != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// TweetText extracts the actual post text from scraped X.com content,
// dropping image placeholders, profile links, timestamps and view counts.
// Returns "" when nothing substantial is left.
func TweetText(content string) string {
	cleaned := CleanTweet(content)
	if len(cleaned) < 50 {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "![Image") {
			continue
		}
		if profileLinkLine.MatchString(stripped) || engagementLine.MatchString(stripped) {
			continue
		}
		if stripped == "Views" || stripped == "Quote" || stripped == "Conversation" {
			continue
		}
		if len(stripped) > 20 {
			kept = append(kept, stripped)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
