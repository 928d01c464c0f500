package models_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"newsagent/internal/models"
)

func TestNewItemDefaults(t *testing.T) {
	item := models.NewItem("Title", "https://ex.com/a")
	require.Equal(t, "Title", item.Title)
	require.Equal(t, "https://ex.com/a", item.URL)
	require.Equal(t, models.SentimentNeutral, item.Sentiment)
	require.Equal(t, "general", item.Category)
	require.False(t, item.FetchedAt.IsZero())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", models.Truncate("abc", 10))
	require.Equal(t, "ab", models.Truncate("abcd", 2))
	require.Equal(t, "", models.Truncate("", 5))

	long := strings.Repeat("x", models.ContentCap+50)
	require.Len(t, models.Truncate(long, models.ContentCap), models.ContentCap)
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	// The cap falls inside the two-byte é; the cut backs up to before it.
	require.Equal(t, "h", models.Truncate("héllo", 2))

	long := strings.Repeat("日", 100)
	got := models.Truncate(long, 100)
	require.True(t, utf8.ValidString(got))
	require.LessOrEqual(t, len(got), 100)
}

func TestResultWarn(t *testing.T) {
	var r models.Result
	r.Warn("first")
	r.Warn("second")
	require.Equal(t, []string{"first", "second"}, r.Warnings)
}
