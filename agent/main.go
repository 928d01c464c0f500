package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/segmentio/kafka-go"

	"newsagent/internal/config"
	"newsagent/internal/dedupe"
	"newsagent/internal/feishu"
	"newsagent/internal/history"
	"newsagent/internal/logger"
	"newsagent/internal/models"
	"newsagent/internal/report"
	"newsagent/internal/sources"
)

func main() {
	log := logger.New("agent")

	cfg, err := config.LoadAgent()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	srcs, err := config.LoadSources(cfg.ConfigPath)
	if err != nil {
		log.Error("load sources", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	rss := sources.NewRSSFetcher(log)
	web := sources.NewWebFetcher(cfg.FirecrawlAPIKey, log)
	social := sources.NewSocialFetcher(cfg.TavilyAPIKey, log)
	newsapi := sources.NewNewsAPIFetcher(cfg.NewsAPIKey, log)

	bitable := feishu.New(feishu.Config{
		AppID:     cfg.Feishu.AppID,
		AppSecret: cfg.Feishu.AppSecret,
		AppToken:  cfg.Feishu.AppToken,
		TableID:   cfg.Feishu.TableID,
	}, log)

	var store history.Store
	if cfg.HistoryBackend == "bitable" {
		store = history.NewRemoteStore(bitable)
	} else {
		store = history.NewFileStore(cfg.OutputDir)
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers...),
		Topic:    cfg.KafkaTopic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	p := &pipeline{
		log:       log,
		sources:   srcs,
		outputDir: cfg.OutputDir,
		history:   store,
		fetchRSS: func(ctx context.Context) models.Result {
			return rss.Fetch(ctx, srcs.RSSFeeds, srcs.Keywords)
		},
		fetchWeb: func(ctx context.Context) models.Result {
			return web.Fetch(ctx, srcs.WebPages, srcs.Keywords)
		},
		fetchSocial: func(ctx context.Context) models.Result {
			return social.Fetch(ctx, srcs.SocialMedia.Platforms, srcs.Keywords, srcs.Output.MaxItemsPerSource)
		},
		fetchNewsAPI: func(ctx context.Context) models.Result {
			return newsapi.Fetch(ctx, srcs.Keywords, srcs.Output.MaxItemsPerSource)
		},
		publish: func(ctx context.Context, items []models.NewsItem) error {
			return publishItems(ctx, writer, items)
		},
	}
	if bitable.Configured() {
		p.export = func(ctx context.Context, items []models.NewsItem) (int, error) {
			// Missing columns fail the whole batch, so bootstrap them first.
			if err := bitable.EnsureFields(ctx); err != nil {
				log.Warn("ensure bitable fields", slog.Any("err", err))
			}
			return bitable.Export(ctx, items)
		}
	}

	path, err := p.run(ctx)
	if err != nil {
		log.Error("run failed", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("run finished", slog.String("report", path))
}

// pipeline is one aggregation run: fetch from every source, drop what was
// already reported, persist the rest, render the report, and hand the items
// downstream.
type pipeline struct {
	log       *slog.Logger
	sources   *config.Sources
	outputDir string

	fetchRSS     func(context.Context) models.Result
	fetchWeb     func(context.Context) models.Result
	fetchSocial  func(context.Context) models.Result
	fetchNewsAPI func(context.Context) models.Result

	history history.Store
	publish func(context.Context, []models.NewsItem) error
	// export is nil when the Bitable is not configured.
	export func(context.Context, []models.NewsItem) (int, error)
}

func (p *pipeline) run(ctx context.Context) (string, error) {
	var (
		wg                                sync.WaitGroup
		rssRes, webRes, socialRes, apiRes models.Result
	)

	wg.Add(4)
	go func() { defer wg.Done(); rssRes = p.fetchRSS(ctx) }()
	go func() { defer wg.Done(); webRes = p.fetchWeb(ctx) }()
	go func() { defer wg.Done(); socialRes = p.fetchSocial(ctx) }()
	go func() { defer wg.Done(); apiRes = p.fetchNewsAPI(ctx) }()
	wg.Wait()

	warnings := make([]string, 0)
	warnings = append(warnings, rssRes.Warnings...)
	warnings = append(warnings, webRes.Warnings...)
	warnings = append(warnings, socialRes.Warnings...)
	warnings = append(warnings, apiRes.Warnings...)

	seen, err := p.history.Load(ctx)
	if err != nil {
		// A dead history backend must not kill the run; worst case some
		// stories repeat.
		warnings = append(warnings, fmt.Sprintf("load history: %v", err))
		p.log.Warn("history load failed, continuing with empty history", slog.Any("err", err))
	}

	// The order fixes which source wins when the same URL shows up twice.
	lists, newlySeen := dedupe.Dedupe([]dedupe.List{
		{Name: "rss", Items: rssRes.Items},
		{Name: "web", Items: webRes.Items},
		{Name: "social", Items: socialRes.Items},
		{Name: "newsapi", Items: apiRes.Items},
	}, seen)

	if err := p.history.Save(ctx, newlySeen); err != nil {
		warnings = append(warnings, fmt.Sprintf("save history: %v", err))
		p.log.Warn("history save failed", slog.Any("err", err))
	}

	var items []models.NewsItem
	for _, list := range lists {
		p.log.Info("source collected", slog.String("source", list.Name), slog.Int("items", len(list.Items)))
		items = append(items, list.Items...)
	}

	markdown := report.Generate(items, p.sources.Keywords, warnings, report.Options{
		IncludeSourceLinks: p.sources.Output.IncludeSourceLinks,
	})
	path, err := report.Save(markdown, p.outputDir)
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}

	if p.publish != nil && len(items) > 0 {
		if err := p.publish(ctx, items); err != nil {
			p.log.Warn("publish to kafka failed", slog.Any("err", err))
		} else {
			p.log.Info("published items", slog.Int("count", len(items)))
		}
	}

	if p.export != nil && len(items) > 0 {
		exported, err := p.export(ctx, items)
		if err != nil {
			p.log.Warn("bitable export failed", slog.Any("err", err))
		} else {
			p.log.Info("exported to bitable", slog.Int("count", exported))
		}
	}

	return path, nil
}

func publishItems(ctx context.Context, writer *kafka.Writer, items []models.NewsItem) error {
	msgs := make([]kafka.Message, 0, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.URL, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(item.URL),
			Value: payload,
		})
	}
	return writer.WriteMessages(ctx, msgs...)
}
