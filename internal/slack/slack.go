// Package slack announces a published report on a Slack channel through an
// incoming webhook.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/news"
)

const (
	DefaultChannel = "#ai-news"
	DefaultTimeout = 30 * time.Second

	// Slack rejects section text longer than this.
	maxSectionRunes = 3000
)

// Message is one report announcement.
type Message struct {
	Channel   string
	ReportURL string
	Articles  []news.Article
	Date      string
	Closing   string
}

type Options struct {
	WebhookURL    string
	Timeout       time.Duration
	Texts         config.Texts
	OtherCategory string
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

type Notifier struct {
	webhookURL string
	client     *http.Client
	texts      config.Texts
	other      string
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func NewNotifier(opts Options) *Notifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Notifier{
		webhookURL: opts.WebhookURL,
		client:     &http.Client{Timeout: opts.Timeout},
		texts:      opts.Texts,
		other:      opts.OtherCategory,
		metrics:    opts.Metrics,
		log:        logger.With(opts.Logger, "slack"),
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// Send posts msg once. Failures are logged and returned; nothing is retried.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	if !n.Enabled() {
		return config.Missing("SLACK_WEBHOOK_URL")
	}
	if msg.Channel == "" {
		msg.Channel = DefaultChannel
	}

	payload := &slack.WebhookMessage{
		Channel: msg.Channel,
		Text:    n.title(msg.Date),
		Blocks:  &slack.Blocks{BlockSet: n.Blocks(msg)},
	}

	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.client, payload); err != nil {
		n.log.Error("Failed to send Slack notification", "channel", msg.Channel, "error", err)
		return fmt.Errorf("post webhook: %w", err)
	}

	n.metrics.IncrementNotificationsSent()
	n.log.Info("Slack notification sent", "channel", msg.Channel, "articles", len(msg.Articles))
	return nil
}

func (n *Notifier) title(date string) string {
	return fmt.Sprintf("%s - %s", n.texts.ReportTitle, date)
}

// Blocks lays out the announcement: header, intro, one section per article
// grouped by category, the report link and the closing remark.
func (n *Notifier) Blocks(msg Message) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, n.title(msg.Date), true, false)),
		section(n.texts.SlackIntro),
		slack.NewDividerBlock(),
	}

	for _, g := range news.GroupByCategory(msg.Articles, n.other) {
		blocks = append(blocks, section(fmt.Sprintf("*【%s】*", g.Category)))
		for _, a := range g.Articles {
			blocks = append(blocks, section(fmt.Sprintf("*<%s|%s>*\n%s", a.URL, a.Title, a.Summary)))
			if len(a.Points) > 0 {
				var b strings.Builder
				fmt.Fprintf(&b, "*%s:*", n.texts.PointsHeading)
				for _, p := range a.Points {
					b.WriteString("\n- " + p)
				}
				blocks = append(blocks, section(b.String()))
			}
			blocks = append(blocks, slack.NewDividerBlock())
		}
	}

	if msg.ReportURL != "" {
		blocks = append(blocks, section(fmt.Sprintf("%s: <%s|%s>", n.texts.DetailsLabel, msg.ReportURL, n.title(msg.Date))))
	}
	if msg.Closing != "" {
		blocks = append(blocks, section(msg.Closing))
	}
	return blocks
}

func section(text string) *slack.SectionBlock {
	if r := []rune(text); len(r) > maxSectionRunes {
		text = string(r[:maxSectionRunes-1]) + "…"
	}
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}
