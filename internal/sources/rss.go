// Package sources fetches candidate news items from the outside world:
// RSS feeds, scraped web pages, social search and NewsAPI. Every fetcher
// returns the items it could get plus warnings for the sources it could not;
// one broken source never fails the run.
package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newsagent/internal/config"
	"newsagent/internal/extract"
	"newsagent/internal/models"
)

const fetchTimeout = 30 * time.Second

// RSSFetcher polls configured feeds.
type RSSFetcher struct {
	http   *http.Client
	parser *gofeed.Parser
	log    *slog.Logger
}

// NewRSSFetcher creates a feed fetcher.
func NewRSSFetcher(logger *slog.Logger) *RSSFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RSSFetcher{
		http:   &http.Client{Timeout: fetchTimeout},
		parser: gofeed.NewParser(),
		log:    logger,
	}
}

// Fetch downloads and filters every configured feed.
func (f *RSSFetcher) Fetch(ctx context.Context, feeds []config.RSSFeed, keywords []string) models.Result {
	var result models.Result

	for _, feedCfg := range feeds {
		feed, err := f.fetchOne(ctx, feedCfg.URL)
		if err != nil {
			result.Warn(fmt.Sprintf("fetch feed %s: %v", feedCfg.Name, err))
			f.log.Warn("feed fetch failed", "feed", feedCfg.Name, "error", err)
			continue
		}

		items := extract.FeedItems(feed, extract.FeedSource{
			Name:     feedCfg.Name,
			URL:      feedCfg.URL,
			Category: feedCfg.Category,
			Limit:    feedCfg.Limit,
			Label:    feedCfg.Label,
		}, keywords)

		f.log.Info("feed fetched", "feed", feedCfg.Name, "entries", len(feed.Items), "matched", len(items))
		result.Items = append(result.Items, items...)
	}

	return result
}

func (f *RSSFetcher) fetchOne(ctx context.Context, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	res, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("status %s", res.Status)
	}

	feed, err := f.parser.Parse(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}
