package keywords

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// shortKeywordLen is the length in runes at or below which a keyword only
// matches at a word boundary, so "AI" matches "new AI tool" but not
// "tailored".
const shortKeywordLen = 3

var (
	mu       sync.Mutex
	boundary = map[string]*regexp.Regexp{}
)

// boundaryPattern anchors the keyword between non-word runes. regexp's \b is
// ASCII-only, so the boundary is spelled out to keep short non-Latin
// keywords working.
func boundaryPattern(keyword string) *regexp.Regexp {
	mu.Lock()
	defer mu.Unlock()
	if re, ok := boundary[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(
		`(?:\A|[^\p{L}\p{N}_])` + regexp.QuoteMeta(keyword) + `(?:[^\p{L}\p{N}_]|\z)`)
	boundary[keyword] = re
	return re
}

// Match returns the keywords found in text, in input order and original case.
// Comparison is case-insensitive; keywords longer than three characters use a
// plain substring test.
func Match(text string, keywords []string) []string {
	if text == "" || len(keywords) == 0 {
		return nil
	}
	textLower := strings.ToLower(text)

	var matched []string
	for _, keyword := range keywords {
		kwLower := strings.ToLower(keyword)
		if kwLower == "" {
			continue
		}
		if utf8.RuneCountInString(keyword) <= shortKeywordLen {
			if boundaryPattern(kwLower).MatchString(textLower) {
				matched = append(matched, keyword)
			}
			continue
		}
		if strings.Contains(textLower, kwLower) {
			matched = append(matched, keyword)
		}
	}
	return matched
}
