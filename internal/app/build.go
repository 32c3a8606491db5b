package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/gemini"
	"github.com/deusflow/ainewsreport/internal/langdetect"
	"github.com/deusflow/ainewsreport/internal/llm"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/notion"
	"github.com/deusflow/ainewsreport/internal/ratelimit"
	"github.com/deusflow/ainewsreport/internal/rss"
	"github.com/deusflow/ainewsreport/internal/scraper"
	"github.com/deusflow/ainewsreport/internal/slack"
	"github.com/deusflow/ainewsreport/internal/unsplash"
)

// FromConfig wires the production components. The returned close function
// releases the model client.
func FromConfig(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *slog.Logger) (*Pipeline, func(), error) {
	log = logger.OrDefault(log)

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := notion.NewClient(notion.Options{
		APIKey:        cfg.NotionAPIKey,
		DatabaseID:    cfg.NotionDatabaseID,
		BaseURL:       cfg.NotionBaseURL,
		Timeout:       cfg.NotionTimeout,
		Properties:    cfg.NotionProperties,
		Texts:         cfg.Texts,
		OtherCategory: cfg.OtherCategory,
		Metrics:       m,
		Logger:        log,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	limiter := ratelimit.New(cfg.LLMRequestsPerMinute, cfg.MaxLLMRequests)

	readerOpts := rss.Options{
		Timeout:   cfg.FeedTimeout,
		UserAgent: cfg.UserAgent,
		Metrics:   m,
		Logger:    logger.With(log, "rss"),
	}
	if cfg.ScrapeImages {
		readerOpts.Pages = scraper.New(cfg.FeedTimeout, cfg.UserAgent)
	}

	gateway := llm.New(client, llm.Options{
		Language:    cfg.LanguageName,
		Audience:    cfg.Audience,
		Categories:  cfg.Categories,
		Other:       cfg.OtherCategory,
		Timeout:     cfg.LLMTimeout,
		Concurrency: cfg.LLMConcurrency,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      logger.With(log, "llm"),
	})

	p := New(Settings{
		FeedURLs:    cfg.FeedURLs,
		Categories:  cfg.Categories,
		PhotoPolicy: cfg.PhotoPolicy,
		Channel:     cfg.SlackChannel,
		Concurrency: cfg.LLMConcurrency,
		Date: func(now time.Time) string {
			return cfg.Date(now.In(cfg.Location()))
		},
	}, Deps{
		Reader:   rss.NewReader(readerOpts),
		Language: langdetect.NewClassifier(cfg.Language, nil),
		Model:    gateway,
		Photos: unsplash.NewFinder(unsplash.Options{
			AccessKey: cfg.UnsplashAccessKey,
			BaseURL:   cfg.UnsplashBaseURL,
			Timeout:   cfg.PhotoTimeout,
			Metrics:   m,
			Logger:    logger.With(log, "unsplash"),
		}),
		Publisher: publisher,
		Notifier: slack.NewNotifier(slack.Options{
			WebhookURL:    cfg.SlackWebhookURL,
			Texts:         cfg.Texts,
			OtherCategory: cfg.OtherCategory,
			Metrics:       m,
			Logger:        log,
		}),
		Limiter: limiter,
		Metrics: m,
		Logger:  log,
	})

	return p, client.Close, nil
}
