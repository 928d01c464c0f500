package sources_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"newsagent/internal/config"
	"newsagent/internal/models"
	"newsagent/internal/sources"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Example</title>
<item>
  <title>robotics breakthrough announced</title>
  <link>https://ex.com/1</link>
  <description>&lt;p&gt;A robotics lab shipped something new.&lt;/p&gt;</description>
  <pubDate>Wed, 19 Aug 2026 10:00:00 GMT</pubDate>
</item>
<item>
  <title>gardening column</title>
  <link>https://ex.com/2</link>
  <description>flowers</description>
</item>
</channel></rss>`

func TestRSSFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, feedXML)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewRSSFetcher(nil)
	result := fetcher.Fetch(context.Background(), []config.RSSFeed{
		{Name: "Example", URL: srv.URL, Category: "tech_news", Limit: 10},
	}, []string{"robotics"})

	require.Empty(t, result.Warnings)
	require.Len(t, result.Items, 1)
	require.Equal(t, "robotics breakthrough announced", result.Items[0].Title)
	require.Equal(t, "A robotics lab shipped something new.", result.Items[0].Content)
	require.Equal(t, models.SourceRSS, result.Items[0].SourceType)
	require.NotNil(t, result.Items[0].PublishedAt)
}

func TestRSSFetcherWarnsOnBrokenFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewRSSFetcher(nil)
	result := fetcher.Fetch(context.Background(), []config.RSSFeed{
		{Name: "Broken", URL: srv.URL},
	}, []string{"robotics"})

	require.Empty(t, result.Items)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "Broken")
}

func TestWebFetcherPlainHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h2>Robotics lab opens downtown</h2><p>The robotics team moved in this week.</p></body></html>`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewWebFetcher("", nil)
	result := fetcher.Fetch(context.Background(), []config.WebPage{
		{Name: "Blog", URL: srv.URL, Category: "company_blog", Limit: 5},
	}, []string{"robotics"})

	require.Empty(t, result.Warnings)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Robotics lab opens downtown", result.Items[0].Title)
	require.Equal(t, models.SourceWebPage, result.Items[0].SourceType)
}

func TestWebFetcherFirecrawl(t *testing.T) {
	var scrapeBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/scrape", r.URL.Path)
		require.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&scrapeBody))
		fmt.Fprint(w, `{"success":true,"data":{"markdown":"## Robotics roundup\n\nWeekly robotics news digest."}}`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewWebFetcher("fc-key", nil).WithBaseURL(srv.URL)
	result := fetcher.Fetch(context.Background(), []config.WebPage{
		{Name: "Digest", URL: "https://blog.example.com", Selector: "div.post-list", Limit: 5},
	}, []string{"robotics"})

	require.Empty(t, result.Warnings)
	require.Len(t, result.Items, 1)
	require.Equal(t, "Robotics roundup", result.Items[0].Title)
	require.Equal(t, "https://blog.example.com", result.Items[0].URL)

	require.Equal(t, true, scrapeBody["onlyMainContent"])
	require.Equal(t, []any{"div.post-list"}, scrapeBody["includeTags"])
}

func TestWebFetcherFirecrawlDefaultSelectorNotForwarded(t *testing.T) {
	var scrapeBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&scrapeBody))
		fmt.Fprint(w, `{"success":true,"data":{"markdown":""}}`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewWebFetcher("fc-key", nil).WithBaseURL(srv.URL)
	fetcher.Fetch(context.Background(), []config.WebPage{
		{Name: "Digest", URL: "https://blog.example.com", Selector: "article"},
	}, []string{"robotics"})

	require.NotContains(t, scrapeBody, "includeTags")
	require.Equal(t, true, scrapeBody["onlyMainContent"])
}

func TestWebFetcherFirecrawlError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"error":"rate limited"}`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewWebFetcher("fc-key", nil).WithBaseURL(srv.URL)
	result := fetcher.Fetch(context.Background(), []config.WebPage{
		{Name: "Digest", URL: "https://blog.example.com"},
	}, []string{"robotics"})

	require.Empty(t, result.Items)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "rate limited")
}

func TestSocialFetcher(t *testing.T) {
	tweet := "We just shipped a new robotics controller and the first units go out to beta testers next week."

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		fmt.Fprintf(w, `{"results":[
			{"url":"https://reddit.com/r/robotics/comments/abc/cool_arm","title":"Cool robotics arm demo thread","raw_content":"A long discussion about the robotics arm demo with plenty of detail about the gripper design.","score":0.8,"published_date":"2026-08-20T09:00:00Z"},
			{"url":"https://reddit.com/r/robotics","title":"Robotics subreddit","raw_content":"subreddit front page with enough text to pass the length gate easily","score":0.9},
			{"url":"https://reddit.com/r/robotics/comments/low/score","title":"Low scoring robotics post","raw_content":"Scores below the threshold are dropped no matter how good they look.","score":0.1},
			{"url":"https://x.com/maker/status/99","title":"maker on X","raw_content":%q,"score":0.25}
		]}`, tweet)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewSocialFetcher("tv-key", nil).WithBaseURL(srv.URL)
	result := fetcher.Fetch(context.Background(), []string{"reddit.com"}, []string{"robotics"}, 10)

	require.Empty(t, result.Warnings)
	require.Len(t, result.Items, 2)

	require.Equal(t, "Reddit", result.Items[0].SourceName)
	require.Equal(t, models.SourceSocial, result.Items[0].SourceType)
	require.Equal(t, "social", result.Items[0].Category)
	require.NotNil(t, result.Items[0].PublishedAt)

	require.Equal(t, "X (Twitter)", result.Items[1].SourceName)
	require.Equal(t, tweet, result.Items[1].Content)
}

func TestSocialFetcherNoKey(t *testing.T) {
	fetcher := sources.NewSocialFetcher("", nil)
	result := fetcher.Fetch(context.Background(), []string{"x.com"}, []string{"robotics"}, 10)
	require.Empty(t, result.Items)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "TAVILY_API_KEY")
}

func TestNewsAPIFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/everything", r.URL.Path)
		require.Equal(t, "na-key", r.Header.Get("X-Api-Key"))
		require.Equal(t, "robotics", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"status":"ok","articles":[
			{"title":"Robotics firm raises round","url":"https://news.example.com/1","description":"A robotics firm raised money.","content":"Full article text.","publishedAt":"2026-08-20T08:00:00Z","source":{"name":"Example Wire"}},
			{"title":"Robotics firm raises round","url":"https://news.example.com/1","description":"duplicate","source":{}},
			{"title":"Unrelated gardening","url":"https://news.example.com/2","description":"flowers","source":{}}
		]}`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewNewsAPIFetcher("na-key", nil).WithBaseURL(srv.URL)
	result := fetcher.Fetch(context.Background(), []string{"robotics"}, 10)

	require.Empty(t, result.Warnings)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	require.Equal(t, "NewsAPI: Example Wire", item.SourceName)
	require.Equal(t, models.SourceNewsAPI, item.SourceType)
	require.Equal(t, "news", item.Category)
	require.Equal(t, "A robotics firm raised money.", item.Content)
	require.Equal(t, "A robotics firm raised money.\n\nFull article text.", item.FullContent)
	require.NotNil(t, item.PublishedAt)
}

func TestNewsAPIFetcherAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"status":"error","message":"rate limit exceeded"}`)
	}))
	t.Cleanup(srv.Close)

	fetcher := sources.NewNewsAPIFetcher("na-key", nil).WithBaseURL(srv.URL)
	result := fetcher.Fetch(context.Background(), []string{"robotics"}, 10)

	require.Empty(t, result.Items)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "rate limit exceeded")
}
