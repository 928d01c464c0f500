package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"newsagent/internal/extract"
	"newsagent/internal/keywords"
	"newsagent/internal/models"
)

// TavilyBaseURL is the hosted search API endpoint.
const TavilyBaseURL = "https://api.tavily.com"

// maxQueryLen is Tavily's documented query length limit.
const maxQueryLen = 400

// maxSearchKeywords caps the number of per-keyword searches per run.
const maxSearchKeywords = 10

const (
	redditScoreThreshold  = 0.3
	twitterScoreThreshold = 0.2
	minTweetLen           = 30
)

// SocialFetcher searches social platforms through the Tavily API.
type SocialFetcher struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewSocialFetcher creates a social search fetcher.
func NewSocialFetcher(apiKey string, logger *slog.Logger) *SocialFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SocialFetcher{
		apiKey:  apiKey,
		baseURL: TavilyBaseURL,
		http:    &http.Client{Timeout: fetchTimeout},
		log:     logger,
	}
}

// WithBaseURL points the fetcher at a different Tavily endpoint.
func (f *SocialFetcher) WithBaseURL(baseURL string) *SocialFetcher {
	f.baseURL = baseURL
	return f
}

type tavilyResult struct {
	URL           string  `json:"url"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// Fetch runs one search per keyword against each platform and filters the
// results down to meaningful posts. maxItems caps the total.
func (f *SocialFetcher) Fetch(ctx context.Context, platforms, kws []string, maxItems int) models.Result {
	var result models.Result

	if f.apiKey == "" {
		result.Warn("TAVILY_API_KEY not configured, skipping social search")
		return result
	}
	if maxItems <= 0 {
		maxItems = 10
	}

	queries := kws
	if len(queries) > maxSearchKeywords {
		queries = queries[:maxSearchKeywords]
	}

	seen := make(map[string]struct{})

	for _, kw := range queries {
		query := truncateQuery(kw)

		var results []tavilyResult
		for _, platform := range platforms {
			batch, err := f.search(ctx, query, platform)
			if err != nil {
				result.Warn(fmt.Sprintf("social search %q on %s: %v", query, platform, err))
				f.log.Warn("social search failed", "query", query, "platform", platform, "error", err)
				continue
			}
			results = append(results, batch...)
		}

		for _, r := range results {
			if r.URL == "" {
				continue
			}
			if _, ok := seen[r.URL]; ok {
				continue
			}
			seen[r.URL] = struct{}{}

			item, ok := f.buildItem(r, kws)
			if !ok {
				continue
			}
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Items) > maxItems {
		result.Items = result.Items[:maxItems]
	}
	return result
}

// search queries one platform. Tweets are short-form, so x.com searches use
// the general topic; everything else uses the news topic, which carries
// published dates.
func (f *SocialFetcher) search(ctx context.Context, query, platform string) ([]tavilyResult, error) {
	topic := "news"
	domains := []string{platform}
	if isTwitterPlatform(platform) {
		topic = "general"
		domains = []string{"x.com", "twitter.com"}
	}

	payload, err := json.Marshal(map[string]any{
		"query":               query,
		"search_depth":        "advanced",
		"topic":               topic,
		"max_results":         10,
		"include_domains":     domains,
		"time_range":          "day",
		"include_raw_content": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	res, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call tavily: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("tavily status %s: %s", res.Status, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Results []tavilyResult `json:"results"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode tavily response: %w", err)
	}
	return parsed.Results, nil
}

func (f *SocialFetcher) buildItem(r tavilyResult, kws []string) (models.NewsItem, bool) {
	isTwitter := extract.IsTwitterURL(r.URL)

	threshold := redditScoreThreshold
	if isTwitter {
		threshold = twitterScoreThreshold
	}
	if r.Score < threshold {
		return models.NewsItem{}, false
	}

	if extract.IsProfilePage(r.URL, r.Title) {
		return models.NewsItem{}, false
	}

	content := r.RawContent
	if content == "" {
		content = r.Content
	}

	if isTwitter {
		content = extract.TweetText(content)
		if len(content) < minTweetLen {
			return models.NewsItem{}, false
		}
	} else if !extract.IsMeaningfulContent(r.Title, content) {
		return models.NewsItem{}, false
	}

	matched := keywords.Match(r.Title+" "+content, kws)
	if len(matched) == 0 {
		return models.NewsItem{}, false
	}

	item := models.NewItem(r.Title, r.URL)
	item.SourceName = sourceNameFor(r.URL)
	item.SourceType = models.SourceSocial
	item.Content = models.Truncate(content, models.ContentCap)
	item.FullContent = content
	item.KeywordsMatched = matched
	item.Category = "social"
	if ts := parseISODate(r.PublishedDate); ts != nil {
		item.PublishedAt = ts
	}
	return item, true
}

func sourceNameFor(url string) string {
	switch {
	case extract.IsTwitterURL(url):
		return "X (Twitter)"
	case strings.Contains(strings.ToLower(url), "reddit.com"):
		return "Reddit"
	default:
		return "Social Media"
	}
}

func isTwitterPlatform(platform string) bool {
	p := strings.ToLower(platform)
	return strings.Contains(p, "x.com") || strings.Contains(p, "twitter.com")
}

func truncateQuery(query string) string {
	if len(query) <= maxQueryLen {
		return query
	}
	return query[:maxQueryLen-3] + "..."
}

func parseISODate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts
		}
	}
	return nil
}
