package extract_test

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"newsagent/internal/extract"
	"newsagent/internal/models"
)

func ts(day int) *time.Time {
	t := time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestFeedItemsSortsNewestFirstAndLimits(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "old robotics story", Link: "https://ex.com/1", Description: "robotics", PublishedParsed: ts(1)},
		{Title: "dateless robotics story", Link: "https://ex.com/2", Description: "robotics"},
		{Title: "new robotics story", Link: "https://ex.com/3", Description: "robotics", PublishedParsed: ts(20)},
		{Title: "mid robotics story", Link: "https://ex.com/4", Description: "robotics", UpdatedParsed: ts(10)},
	}}

	items := extract.FeedItems(feed, extract.FeedSource{Name: "Example", Limit: 3}, []string{"robotics"})
	require.Len(t, items, 3)
	require.Equal(t, "new robotics story", items[0].Title)
	require.Equal(t, "mid robotics story", items[1].Title)
	require.Equal(t, "old robotics story", items[2].Title)
}

func TestFeedItemsKeywordFilter(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "a story about gardening", Link: "https://ex.com/1", Description: "flowers"},
		{Title: "a story about robotics", Link: "https://ex.com/2", Description: "<p>robot arms</p>"},
	}}

	items := extract.FeedItems(feed, extract.FeedSource{Name: "Example", Category: "tech_news"}, []string{"robotics"})
	require.Len(t, items, 1)
	require.Equal(t, "https://ex.com/2", items[0].URL)
	require.Equal(t, []string{"robotics"}, items[0].KeywordsMatched)
	require.Equal(t, "robot arms", items[0].Content)
	require.Equal(t, models.SourceRSS, items[0].SourceType)
	require.Equal(t, "tech_news", items[0].Category)
}

func TestFeedItemsFixedLabelSkipsMatching(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "firmware update", Link: "https://ex.com/1", Description: "nothing matching"},
	}}

	items := extract.FeedItems(feed, extract.FeedSource{Name: "Vendor", Label: "3D printing"}, []string{"robotics"})
	require.Len(t, items, 1)
	require.Equal(t, []string{"3D printing"}, items[0].KeywordsMatched)
}

func TestFeedItemsDedupsLinks(t *testing.T) {
	feed := &gofeed.Feed{Items: []*gofeed.Item{
		{Title: "robotics story", Link: "https://ex.com/1", Description: "robotics"},
		{Title: "robotics story again", Link: "https://ex.com/1", Description: "robotics"},
	}}

	items := extract.FeedItems(feed, extract.FeedSource{Name: "Example"}, []string{"robotics"})
	require.Len(t, items, 1)
}

func TestEntryDateFallsBackToRawStrings(t *testing.T) {
	entry := &gofeed.Item{Published: "2026-08-20T10:00:00Z"}
	got := extract.EntryDate(entry)
	require.NotNil(t, got)
	require.Equal(t, 20, got.Day())

	require.Nil(t, extract.EntryDate(&gofeed.Item{Published: "not a date"}))
}
