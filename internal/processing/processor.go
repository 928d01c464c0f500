// Package processing holds the worker-side enrichment helpers: stable
// document ids, text cleanup, auto keyword extraction and fallback summaries.
package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)
	whitespace  = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "to": {}, "in": {}, "for": {},
	"of": {}, "and": {}, "on": {}, "with": {}, "is": {}, "are": {},
	"this": {}, "that": {}, "from": {}, "has": {}, "have": {}, "its": {},
}

// DocumentID hashes the item URL into a deterministic Elasticsearch id.
// The URL is the identity of a story, so the same link always maps to the
// same document no matter which source produced it.
func DocumentID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// RemoveURLs replaces every URL in the text with a space.
func RemoveURLs(input string) string {
	return urlPattern.ReplaceAllString(input, " ")
}

// CleanText decodes HTML entities, drops URLs and punctuation, and squeezes
// whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	out := RemoveURLs(html.UnescapeString(input))
	out = punctuation.ReplaceAllString(out, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(out, " "))
}

// tokenize lowercases the cleaned text and yields candidate keyword tokens:
// stop-words and tokens shorter than minLen are dropped.
func tokenize(text string, minLen int) []string {
	var tokens []string
	for _, field := range strings.Fields(strings.ToLower(CleanText(text))) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// ExtractKeywords returns the most frequent non-stop-words, most frequent
// first, ties broken alphabetically. The worker stores these alongside the
// configured keyword matches so the API can filter on terms nobody thought
// to configure.
func ExtractKeywords(text string, limit, minLen int) []string {
	freq := make(map[string]int)
	for _, token := range tokenize(text, minLen) {
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	slices.SortFunc(words, func(a, b string) int {
		if freq[a] != freq[b] {
			return freq[b] - freq[a]
		}
		return strings.Compare(a, b)
	})

	if limit > 0 && len(words) > limit {
		words = words[:limit]
	}
	return words
}

// Summarize builds a fallback summary from the first sentence of the text,
// capped at maxWords. Returns empty string if text is empty.
func Summarize(text string, maxWords int) string {
	stripped := RemoveURLs(text)

	sentence := stripped
	if end := strings.IndexAny(stripped, ".!?"); end > 0 {
		sentence = stripped[:end]
	}

	words := strings.Fields(sentence)
	if len(words) == 0 {
		return ""
	}
	if maxWords > 0 && len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
