package extract

import (
	"regexp"
	"strings"
)

var (
	htmlTag    = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// CleanHTML strips tags and collapses whitespace.
func CleanHTML(text string) string {
	clean := htmlTag.ReplaceAllString(text, "")
	clean = whitespace.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// CollapseWhitespace squeezes all runs of whitespace into single spaces.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
