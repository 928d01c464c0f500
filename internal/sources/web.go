package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"newsagent/internal/config"
	"newsagent/internal/extract"
	"newsagent/internal/models"
)

// FirecrawlBaseURL is the hosted scraping API endpoint.
const FirecrawlBaseURL = "https://api.firecrawl.dev"

// WebFetcher captures configured pages as markdown and extracts articles
// from them. With a Firecrawl key it uses the hosted renderer, which handles
// script-heavy pages; without one it falls back to a plain GET plus local
// HTML to markdown conversion.
type WebFetcher struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	converter *md.Converter
	log       *slog.Logger
}

// NewWebFetcher creates a page fetcher. apiKey may be empty.
func NewWebFetcher(apiKey string, logger *slog.Logger) *WebFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &WebFetcher{
		apiKey:    apiKey,
		baseURL:   FirecrawlBaseURL,
		http:      &http.Client{Timeout: fetchTimeout},
		converter: md.NewConverter("", true, nil),
		log:       logger,
	}
}

// WithBaseURL points the fetcher at a different Firecrawl endpoint.
func (f *WebFetcher) WithBaseURL(baseURL string) *WebFetcher {
	f.baseURL = baseURL
	return f
}

// Fetch scrapes every configured page and extracts matching articles.
func (f *WebFetcher) Fetch(ctx context.Context, pages []config.WebPage, keywords []string) models.Result {
	var result models.Result

	for _, page := range pages {
		markdown, err := f.capture(ctx, page)
		if err != nil {
			result.Warn(fmt.Sprintf("scrape %s: %v", page.Name, err))
			f.log.Warn("page scrape failed", "page", page.Name, "error", err)
			continue
		}

		items := extract.PageItems(markdown, extract.PageSource{
			Name:     page.Name,
			URL:      page.URL,
			Category: page.Category,
			Limit:    page.Limit,
			Label:    page.Label,
		}, keywords)

		f.log.Info("page scraped", "page", page.Name, "matched", len(items))
		result.Items = append(result.Items, items...)
	}

	return result
}

func (f *WebFetcher) capture(ctx context.Context, page config.WebPage) (string, error) {
	if f.apiKey != "" {
		return f.firecrawl(ctx, page)
	}
	return f.plainFetch(ctx, page.URL)
}

// firecrawl renders the page remotely and returns its markdown.
func (f *WebFetcher) firecrawl(ctx context.Context, page config.WebPage) (string, error) {
	body := map[string]any{
		"url":             page.URL,
		"formats":         []string{"markdown"},
		"onlyMainContent": true,
	}
	if page.WaitFor > 0 {
		body["waitFor"] = page.WaitFor
	}
	// "article" is the catch-all default; only a narrower selector is worth
	// forwarding as a tag hint.
	if page.Selector != "" && page.Selector != "article" {
		body["includeTags"] = []string{page.Selector}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	res, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call firecrawl: %w", err)
	}
	defer res.Body.Close()

	var parsed struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Data    struct {
			Markdown string `json:"markdown"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode firecrawl response: %w", err)
	}
	if !parsed.Success {
		if parsed.Error == "" {
			parsed.Error = res.Status
		}
		return "", fmt.Errorf("firecrawl: %s", parsed.Error)
	}
	return parsed.Data.Markdown, nil
}

// plainFetch downloads the page and converts the HTML locally. Pages that
// need script execution come back mostly empty this way, which surfaces as
// zero extracted items rather than an error.
func (f *WebFetcher) plainFetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "newsagent/1.0")

	res, err := f.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("status %s", res.Status)
	}

	html, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	markdown, err := f.converter.ConvertString(string(html))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return markdown, nil
}
