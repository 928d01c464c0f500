// Package feishu talks to the Feishu Open Platform Bitable API: exporting
// news items as table rows and reading the table back as URL history.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newsagent/internal/models"
)

// DefaultBaseURL is the public Feishu Open Platform endpoint.
const DefaultBaseURL = "https://open.feishu.cn"

// batchSize is the Bitable batch_create limit per request.
const batchSize = 500

// pageSize is the record listing page size.
const pageSize = 500

// Config carries the Bitable credentials and target table.
type Config struct {
	AppID     string
	AppSecret string
	AppToken  string
	TableID   string
	BaseURL   string
}

// Client is a minimal Bitable API client. It acquires a tenant access token
// per call sequence rather than caching it; runs are short-lived.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New creates a Bitable client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		log:  logger,
	}
}

// Configured reports whether both credentials and a target table are set.
func (c *Client) Configured() bool {
	return c.cfg.AppID != "" && c.cfg.AppSecret != "" &&
		c.cfg.AppToken != "" && c.cfg.TableID != ""
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call feishu: %w", err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode feishu response: %w", err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("feishu api error %d: %s", env.Code, env.Msg)
	}
	return &env, nil
}

// auth exchanges app credentials for a tenant access token. Unlike the other
// endpoints, the token sits next to code/msg rather than under data.
func (c *Client) auth(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/open-apis/auth/v3/tenant_access_token/internal/",
		bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("feishu auth: %w", err)
	}
	defer res.Body.Close()

	var parsed struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if parsed.Code != 0 {
		return "", fmt.Errorf("feishu auth error %d: %s", parsed.Code, parsed.Msg)
	}
	return parsed.TenantAccessToken, nil
}

func (c *Client) tablePath(suffix string) string {
	return fmt.Sprintf("/open-apis/bitable/v1/apps/%s/tables/%s/%s",
		c.cfg.AppToken, c.cfg.TableID, suffix)
}

// record is a Bitable row.
type record struct {
	Fields map[string]any `json:"fields"`
}

// ListURLs pages through every record in the table and collects the URL
// column. The URL cell may be a plain string or a {link, text} object.
func (c *Client) ListURLs(ctx context.Context) (map[string]struct{}, error) {
	token, err := c.auth(ctx)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]struct{})
	pageToken := ""

	for {
		query := url.Values{"page_size": {fmt.Sprint(pageSize)}}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}

		env, err := c.do(ctx, http.MethodGet, c.tablePath("records")+"?"+query.Encode(), token, nil)
		if err != nil {
			return urls, fmt.Errorf("list records: %w", err)
		}

		var page struct {
			Items []struct {
				Fields map[string]json.RawMessage `json:"fields"`
			} `json:"items"`
			HasMore   bool   `json:"has_more"`
			PageToken string `json:"page_token"`
		}
		if err := json.Unmarshal(env.Data, &page); err != nil {
			return urls, fmt.Errorf("decode records page: %w", err)
		}

		for _, item := range page.Items {
			raw, ok := item.Fields["URL"]
			if !ok {
				continue
			}
			if link := decodeURLField(raw); link != "" {
				urls[link] = struct{}{}
			}
		}

		if !page.HasMore || page.PageToken == "" {
			break
		}
		pageToken = page.PageToken
	}

	c.log.Debug("fetched existing urls from bitable", "count", len(urls))
	return urls, nil
}

func decodeURLField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Link
	}
	return ""
}

// Export writes items into the table, at most batchSize rows per request.
// It returns the number of rows created; a mid-run failure reports the rows
// already created alongside the error.
func (c *Client) Export(ctx context.Context, items []models.NewsItem) (int, error) {
	if !c.Configured() {
		return 0, fmt.Errorf("bitable not configured")
	}
	if len(items) == 0 {
		return 0, nil
	}

	token, err := c.auth(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]record, 0, len(items))
	for _, item := range items {
		records = append(records, toRecord(item))
	}

	created := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		env, err := c.do(ctx, http.MethodPost, c.tablePath("records/batch_create"), token, map[string]any{
			"records": records[start:end],
		})
		if err != nil {
			return created, fmt.Errorf("batch create: %w", err)
		}

		var data struct {
			Records []json.RawMessage `json:"records"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return created, fmt.Errorf("decode batch create response: %w", err)
		}
		created += len(data.Records)
	}

	c.log.Info("exported items to bitable", "count", created)
	return created, nil
}

// toRecord maps an item onto the table columns. Dates are Bitable millisecond
// timestamps; items without a published date use now.
func toRecord(item models.NewsItem) record {
	date := time.Now()
	if item.PublishedAt != nil {
		date = *item.PublishedAt
	}

	return record{Fields: map[string]any{
		"Title":     item.Title,
		"Source":    item.SourceName,
		"Category":  FormatCategory(item.Category),
		"Sentiment": SentimentText(item.Sentiment),
		"Keywords":  strings.Join(item.KeywordsMatched, ", "),
		"Summary":   models.Truncate(item.Summary, 2000),
		"URL": map[string]string{
			"link": item.URL,
			"text": item.Title,
		},
		"Date": date.UnixMilli(),
	}}
}

// EnsureFields creates any missing table columns from the default layout.
func (c *Client) EnsureFields(ctx context.Context) error {
	token, err := c.auth(ctx)
	if err != nil {
		return err
	}

	env, err := c.do(ctx, http.MethodGet, c.tablePath("fields"), token, nil)
	if err != nil {
		return fmt.Errorf("list fields: %w", err)
	}

	var data struct {
		Items []struct {
			FieldName string `json:"field_name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return fmt.Errorf("decode fields: %w", err)
	}

	existing := make(map[string]struct{}, len(data.Items))
	for _, f := range data.Items {
		existing[f.FieldName] = struct{}{}
	}

	// Bitable field types: 1 = text, 5 = datetime, 15 = url.
	defaults := []struct {
		Name string
		Type int
	}{
		{"Title", 1}, {"Source", 1}, {"Category", 1}, {"Sentiment", 1},
		{"Keywords", 1}, {"Summary", 1}, {"URL", 15}, {"Date", 5},
	}

	for _, f := range defaults {
		if _, ok := existing[f.Name]; ok {
			continue
		}
		_, err := c.do(ctx, http.MethodPost, c.tablePath("fields"), token, map[string]any{
			"field_name": f.Name,
			"type":       f.Type,
		})
		if err != nil {
			c.log.Warn("create bitable field failed", "field", f.Name, "error", err)
			continue
		}
		c.log.Info("created bitable field", "field", f.Name)
	}
	return nil
}

// SentimentText renders a sentiment as the table's display value.
func SentimentText(s models.Sentiment) string {
	switch s {
	case models.SentimentPositive:
		return "🟢 Positive"
	case models.SentimentNegative:
		return "🔴 Negative"
	default:
		return "🟡 Neutral"
	}
}

// FormatCategory turns a snake_case category into a display name, e.g.
// "company_blog" becomes "Company Blog".
func FormatCategory(category string) string {
	if category == "" {
		return "General"
	}
	words := strings.Split(strings.ReplaceAll(category, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
