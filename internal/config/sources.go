package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RSSFeed is one feed to poll.
type RSSFeed struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Limit    int    `yaml:"limit"`
	// Label, when set, tags every entry from this feed instead of running
	// keyword matching. Used for vendor feeds that are on-topic by
	// definition.
	Label string `yaml:"label"`
}

// WebPage is one page to scrape.
type WebPage struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Selector string `yaml:"selector"`
	Category string `yaml:"category"`
	Limit    int    `yaml:"limit"`
	// WaitFor is the milliseconds the scraper should wait for scripts to
	// render before capturing the page.
	WaitFor int    `yaml:"wait_for"`
	Label   string `yaml:"label"`
}

// SocialMedia configures the social search.
type SocialMedia struct {
	Platforms []string `yaml:"platforms"`
}

// Output configures report generation.
type Output struct {
	Format             string `yaml:"format"`
	IncludeSourceLinks bool   `yaml:"include_source_links"`
	MaxItemsPerSource  int    `yaml:"max_items_per_source"`
	SummaryMaxWords    int    `yaml:"summary_max_words"`
}

// Sources is the complete sources file.
type Sources struct {
	Keywords    []string    `yaml:"keywords"`
	RSSFeeds    []RSSFeed   `yaml:"rss_feeds"`
	WebPages    []WebPage   `yaml:"web_pages"`
	SocialMedia SocialMedia `yaml:"social_media"`
	Output      Output      `yaml:"output"`
}

// LoadSources reads and validates the YAML sources file, filling defaults
// for anything omitted.
func LoadSources(path string) (*Sources, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources config: %w", err)
	}

	var s Sources
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sources config: %w", err)
	}

	for i := range s.RSSFeeds {
		if s.RSSFeeds[i].URL == "" {
			return nil, fmt.Errorf("rss_feeds[%d]: url is required", i)
		}
		if s.RSSFeeds[i].Category == "" {
			s.RSSFeeds[i].Category = "general"
		}
		if s.RSSFeeds[i].Limit <= 0 {
			s.RSSFeeds[i].Limit = 10
		}
	}

	for i := range s.WebPages {
		if s.WebPages[i].URL == "" {
			return nil, fmt.Errorf("web_pages[%d]: url is required", i)
		}
		if s.WebPages[i].Selector == "" {
			s.WebPages[i].Selector = "article"
		}
		if s.WebPages[i].Category == "" {
			s.WebPages[i].Category = "general"
		}
		if s.WebPages[i].Limit <= 0 {
			s.WebPages[i].Limit = 5
		}
	}

	if len(s.SocialMedia.Platforms) == 0 {
		s.SocialMedia.Platforms = []string{"x.com", "reddit.com"}
	}

	if s.Output.Format == "" {
		s.Output.Format = "markdown"
	}
	if s.Output.MaxItemsPerSource <= 0 {
		s.Output.MaxItemsPerSource = 10
	}
	if s.Output.SummaryMaxWords <= 0 {
		s.Output.SummaryMaxWords = 150
	}

	return &s, nil
}
