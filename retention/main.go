package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsagent/internal/config"
	"newsagent/internal/elasticsearch"
	"newsagent/internal/logger"
)

const (
	connectAttempts = 10
	maxBackoff      = 30 * time.Second
)

func main() {
	log := logger.New("retention")
	cfg, err := config.LoadRetention()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	esClient, err := connect(ctx, cfg, log)
	if err != nil {
		log.Error("connect to elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("pruning old news items",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge),
	)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// First pass right away so a restart doesn't postpone cleanup by a full
	// interval.
	prune(ctx, log, esClient, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			prune(ctx, log, esClient, cfg)
		}
	}
}

// connect builds the client and pings until Elasticsearch answers, backing
// off exponentially between attempts.
func connect(ctx context.Context, cfg *config.Retention, log *slog.Logger) (*elasticsearch.Client, error) {
	backoff := 2 * time.Second

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		client, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx)
			cancel()
			if err == nil {
				log.Info("connected to elasticsearch")
				return client, nil
			}
		}

		log.Warn("elasticsearch not ready",
			slog.Any("err", err),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", backoff),
		)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, errors.New("elasticsearch unreachable after retries")
}

func prune(ctx context.Context, log *slog.Logger, esClient *elasticsearch.Client, cfg *config.Retention) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	deleted, err := esClient.DeleteOlderThan(runCtx, cfg.MaxAge, cfg.BatchSize)
	if err != nil {
		log.Warn("prune failed, will retry next interval", slog.Any("err", err))
		return
	}
	if deleted > 0 {
		log.Info("pruned old items", slog.Int64("deleted", deleted))
	} else {
		log.Debug("nothing to prune")
	}
}
