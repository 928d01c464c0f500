package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsagent/internal/keywords"
	"newsagent/internal/models"
)

// NewsAPIBaseURL is the hosted newsapi.org endpoint.
const NewsAPIBaseURL = "https://newsapi.org"

// maxNewsAPIKeywords caps per-keyword requests; the free tier rate limit is
// easy to hit otherwise.
const maxNewsAPIKeywords = 5

// newsAPIContentCap matches the display truncation used for feed entries.
const newsAPIContentCap = 1000

// NewsAPIFetcher queries the newsapi.org everything endpoint for each
// configured keyword, covering mainstream outlets the feed list misses.
type NewsAPIFetcher struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewNewsAPIFetcher creates a NewsAPI fetcher.
func NewNewsAPIFetcher(apiKey string, logger *slog.Logger) *NewsAPIFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &NewsAPIFetcher{
		apiKey:  apiKey,
		baseURL: NewsAPIBaseURL,
		http:    &http.Client{Timeout: fetchTimeout},
		log:     logger,
	}
}

// WithBaseURL points the fetcher at a different endpoint.
func (f *NewsAPIFetcher) WithBaseURL(baseURL string) *NewsAPIFetcher {
	f.baseURL = baseURL
	return f
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
	PublishedAt string `json:"publishedAt"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

// Fetch searches the last 24 hours of articles for each keyword. maxItems
// caps the total across all keywords.
func (f *NewsAPIFetcher) Fetch(ctx context.Context, kws []string, maxItems int) models.Result {
	var result models.Result

	if f.apiKey == "" {
		result.Warn("NEWSAPI_API_KEY not configured, skipping NewsAPI")
		return result
	}
	if maxItems <= 0 {
		maxItems = 10
	}

	queries := kws
	if len(queries) > maxNewsAPIKeywords {
		queries = queries[:maxNewsAPIKeywords]
	}

	seen := make(map[string]struct{})

	for _, kw := range queries {
		articles, err := f.everything(ctx, kw)
		if err != nil {
			result.Warn(fmt.Sprintf("newsapi search %q: %v", kw, err))
			f.log.Warn("newsapi search failed", "keyword", kw, "error", err)
			continue
		}

		for _, article := range articles {
			if article.URL == "" || article.Title == "" {
				continue
			}
			if _, ok := seen[article.URL]; ok {
				continue
			}
			seen[article.URL] = struct{}{}

			combined := strings.Join([]string{article.Title, article.Description, article.Content}, " ")
			matched := keywords.Match(combined, kws)
			if len(matched) == 0 {
				continue
			}

			fullContent := article.Description
			if article.Content != "" {
				fullContent = article.Description + "\n\n" + article.Content
			}

			item := models.NewItem(article.Title, article.URL)
			item.SourceName = "NewsAPI: " + orDefault(article.Source.Name, "NewsAPI")
			item.SourceType = models.SourceNewsAPI
			item.Content = models.Truncate(article.Description, newsAPIContentCap)
			item.FullContent = fullContent
			item.KeywordsMatched = matched
			item.Category = "news"
			if ts := parseISODate(article.PublishedAt); ts != nil {
				item.PublishedAt = ts
			}
			result.Items = append(result.Items, item)
		}
	}

	if len(result.Items) > maxItems {
		result.Items = result.Items[:maxItems]
	}
	return result
}

func (f *NewsAPIFetcher) everything(ctx context.Context, keyword string) ([]newsAPIArticle, error) {
	now := time.Now()
	query := url.Values{
		"q":        {keyword},
		"from":     {now.AddDate(0, 0, -1).Format("2006-01-02")},
		"to":       {now.Format("2006-01-02")},
		"language": {"en"},
		"sortBy":   {"publishedAt"},
		"pageSize": {"10"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		f.baseURL+"/v2/everything?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", f.apiKey)

	res, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call newsapi: %w", err)
	}
	defer res.Body.Close()

	var parsed struct {
		Status   string           `json:"status"`
		Message  string           `json:"message"`
		Articles []newsAPIArticle `json:"articles"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if parsed.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s", orDefault(parsed.Message, res.Status))
	}
	return parsed.Articles, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
