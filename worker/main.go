package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"newsagent/internal/config"
	"newsagent/internal/dedupe"
	"newsagent/internal/elasticsearch"
	"newsagent/internal/logger"
	"newsagent/internal/models"
	"newsagent/internal/processing"
)

type itemIndexer interface {
	IndexItem(ctx context.Context, id string, item models.NewsItem) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, esClient, cache, cfg, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			// Commit only after the DLQ write lands; otherwise leave the
			// offset alone so the item is reprocessed on restart.
			if !sendToDLQ(ctx, log, dlqWriter, msg, err) {
				log.Error("DLQ write exhausted retries, message may be lost if later messages commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// sendToDLQ forwards a failed item to the dead-letter topic with the error
// and origin attached, retrying with exponential backoff. Returns false when
// all attempts failed or the context was canceled.
func sendToDLQ(ctx context.Context, log *slog.Logger, writer *kafka.Writer, msg kafka.Message, procErr error) bool {
	dlqMsg := kafka.Message{
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(procErr.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := 0; attempt < 5; attempt++ {
		err := writer.WriteMessages(ctx, dlqMsg)
		if err == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func processMessage(ctx context.Context, log *slog.Logger, esClient itemIndexer, cache *dedupe.Cache, cfg *config.Worker, msg kafka.Message) error {
	var item models.NewsItem
	if err := json.Unmarshal(msg.Value, &item); err != nil {
		return err
	}

	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" && item.Content == "" {
		return errors.New("empty payload")
	}

	text := item.FullContent
	if text == "" {
		text = item.Content
	}

	// Generate title from content if missing
	if item.Title == "" {
		item.Title = processing.Summarize(text, 10)
	}

	if item.FetchedAt.IsZero() {
		item.FetchedAt = time.Now().UTC()
	}
	if item.SourceName == "" {
		item.SourceName = "unknown"
	}

	if item.Summary == "" {
		item.Summary = processing.Summarize(processing.CleanText(text), cfg.SummaryMaxWords)
	}

	// Items the agent tagged keep their tags; untagged items get auto
	// keywords so the API can still filter on them.
	if len(item.KeywordsMatched) == 0 {
		cleaned := processing.CleanText(text)
		item.KeywordsMatched = processing.ExtractKeywords(item.Title+" "+cleaned, cfg.KeywordLimit, cfg.KeywordMinLength)
	}

	id := uuid.NewString()
	if item.URL != "" {
		id = processing.DocumentID(item.URL)
	}

	if cache.IsSeen(id) {
		log.Debug("duplicate item", slog.String("id", id), slog.String("url", item.URL))
		return nil
	}

	if err := esClient.IndexItem(ctx, id, item); err != nil {
		return err
	}

	cache.MarkSeen(id)
	log.Info("indexed item", slog.String("id", id), slog.String("title", item.Title))
	return nil
}
