package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"newsagent/internal/config"
	"newsagent/internal/dedupe"
	"newsagent/internal/models"
)

type stubIndexer struct {
	ids   []string
	items []models.NewsItem
}

func (s *stubIndexer) IndexItem(_ context.Context, id string, item models.NewsItem) error {
	s.ids = append(s.ids, id)
	s.items = append(s.items, item)
	return nil
}

func workerConfig() *config.Worker {
	return &config.Worker{
		Common: config.Common{
			ElasticsearchAddr:  "http://test",
			ElasticsearchIndex: "news",
		},
		KeywordLimit:     5,
		KeywordMinLength: 3,
		SummaryMaxWords:  20,
	}
}

func TestProcessMessageIndexesItem(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	item := models.NewsItem{
		Title:           "Laser firmware update",
		URL:             "https://ex.com/laser",
		SourceName:      "Vendor Blog",
		SourceType:      models.SourceRSS,
		Content:         "The laser engraver firmware got safety fixes.",
		KeywordsMatched: []string{"laser"},
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	msg := kafka.Message{Value: data}

	require.NoError(t, processMessage(context.Background(), log, idx, cache, workerConfig(), msg))
	require.Len(t, idx.items, 1)

	got := idx.items[0]
	require.Equal(t, "Laser firmware update", got.Title)
	require.Equal(t, []string{"laser"}, got.KeywordsMatched)
	require.NotEmpty(t, got.Summary)
	require.False(t, got.FetchedAt.IsZero())

	// Same URL re-delivered is deduplicated by the cache.
	require.NoError(t, processMessage(context.Background(), log, idx, cache, workerConfig(), msg))
	require.Len(t, idx.items, 1)
}

func TestProcessMessageSameURLSameID(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	idx := &stubIndexer{}

	encode := func(item models.NewsItem) kafka.Message {
		data, err := json.Marshal(item)
		require.NoError(t, err)
		return kafka.Message{Value: data}
	}

	first := encode(models.NewsItem{Title: "From rss", URL: "https://ex.com/story", Content: "x"})
	second := encode(models.NewsItem{Title: "From web", URL: "https://ex.com/story", Content: "y"})

	// Fresh caches so both index; the ids must still collide.
	require.NoError(t, processMessage(context.Background(), log, idx, dedupe.NewCache(10, time.Hour), workerConfig(), first))
	require.NoError(t, processMessage(context.Background(), log, idx, dedupe.NewCache(10, time.Hour), workerConfig(), second))
	require.Len(t, idx.ids, 2)
	require.Equal(t, idx.ids[0], idx.ids[1])
}

func TestProcessMessageGeneratesTitleAndKeywords(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	item := models.NewsItem{
		URL:     "https://ex.com/untitled",
		Content: "Engraver firmware shipped today! Engraver owners should update now.",
	}
	data, err := json.Marshal(item)
	require.NoError(t, err)

	require.NoError(t, processMessage(context.Background(), log, idx, cache, workerConfig(), kafka.Message{Value: data}))
	require.Len(t, idx.items, 1)

	got := idx.items[0]
	require.Equal(t, "Engraver firmware shipped today", got.Title)
	require.Contains(t, got.KeywordsMatched, "engraver")
}

func TestProcessMessageRejectsEmptyPayload(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	data, err := json.Marshal(models.NewsItem{URL: "https://ex.com/empty"})
	require.NoError(t, err)

	require.Error(t, processMessage(context.Background(), log, idx, cache, workerConfig(), kafka.Message{Value: data}))
	require.Empty(t, idx.items)
}
