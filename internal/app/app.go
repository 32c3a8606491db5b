// Package app runs one end-to-end report: fetch, summarize, classify,
// curate, illustrate, publish and announce.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/llm"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/news"
	"github.com/deusflow/ainewsreport/internal/ratelimit"
	"github.com/deusflow/ainewsreport/internal/sanitize"
	"github.com/deusflow/ainewsreport/internal/slack"
)

type FeedReader interface {
	FetchAll(ctx context.Context, urls []string) []news.Article
}

type LanguageClassifier interface {
	IsForeign(text string) bool
}

// Model is the set of model-backed judgments a run needs. None of them
// return errors; each degrades to its own fallback value.
type Model interface {
	Summarize(ctx context.Context, text string) llm.Summary
	Categorize(ctx context.Context, title, summary string) string
	Curate(ctx context.Context, articles []news.Article, categories []string) []news.Article
	ImageKeywords(ctx context.Context, title, summary, category string) string
	ClosingComment(ctx context.Context, articles []news.Article) string
}

type PhotoFinder interface {
	Find(ctx context.Context, keywords string) (string, bool)
}

type Publisher interface {
	EnsureProperties(ctx context.Context) error
	CreateReportPage(ctx context.Context, articles []news.Article, coverURL, date string) (string, error)
}

type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, msg slack.Message) error
}

// Settings are the per-run options of a Pipeline.
type Settings struct {
	FeedURLs    []string
	Categories  []string
	PhotoPolicy string
	Channel     string
	Concurrency int
	// Date returns the report date for a run; nil means today.
	Date func(now time.Time) string
}

type Deps struct {
	Reader    FeedReader
	Language  LanguageClassifier
	Model     Model
	Photos    PhotoFinder
	Publisher Publisher
	Notifier  Notifier
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Result describes what a run produced. Stopped is set when the run ended
// early without an error.
type Result struct {
	Date      string
	Fetched   int
	Selected  []news.Article
	ReportURL string
	Closing   string
	Notified  bool
	Stopped   string
	// ModelCalls counts calls reserved against the run's model budget.
	ModelCalls int
}

type Pipeline struct {
	settings Settings
	deps     Deps
	log      *slog.Logger
}

func New(settings Settings, deps Deps) *Pipeline {
	if settings.PhotoPolicy == "" {
		settings.PhotoPolicy = config.PhotoPolicyAll
	}
	if settings.Channel == "" {
		settings.Channel = slack.DefaultChannel
	}
	if settings.Concurrency < 1 {
		settings.Concurrency = 1
	}
	if settings.Date == nil {
		settings.Date = func(now time.Time) string { return now.Format("2006-01-02") }
	}
	return &Pipeline{
		settings: settings,
		deps:     deps,
		log:      logger.OrDefault(deps.Logger),
	}
}

// Run executes one report. Step failures are logged and end the run
// without an error; only cancellation of ctx is returned.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	start := time.Now()
	m := p.deps.Metrics
	p.deps.Limiter.Reset()
	m.SetLastRun()
	defer func() {
		res.ModelCalls, _, _ = p.deps.Limiter.Stats()
		m.RecordProcessingTime(time.Since(start))
	}()

	res = Result{Date: p.settings.Date(start)}
	log := p.log.With("date", res.Date)

	log.Info("Step 1: collecting news", "feeds", len(p.settings.FeedURLs))
	articles := p.deps.Reader.FetchAll(ctx, p.settings.FeedURLs)
	res.Fetched = len(articles)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(articles) == 0 {
		log.Warn("No articles fetched, stopping")
		res.Stopped = "no articles fetched"
		return res, nil
	}

	log.Info("Step 2: summarizing and categorizing", "articles", len(articles))
	if err := p.process(ctx, articles); err != nil {
		return res, err
	}

	log.Info("Step 3: curating articles", "categories", len(p.settings.Categories))
	selected := p.deps.Model.Curate(ctx, articles, p.settings.Categories)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(selected) == 0 {
		log.Warn("No articles selected for the report, stopping")
		res.Stopped = "no articles selected"
		return res, nil
	}
	res.Selected = selected

	log.Info("Step 4: looking up photos", "policy", p.settings.PhotoPolicy)
	p.attachPhotos(ctx, selected)
	cover := selected[0].ImageURL

	log.Info("Step 5: publishing report")
	if err := p.deps.Publisher.EnsureProperties(ctx); err != nil {
		log.Error("Report database is not ready, skipping publication", "error", err)
		m.SetError(err.Error())
		res.Stopped = "report database not ready"
		return res, ctxErr(ctx, err)
	}
	reportURL, err := p.deps.Publisher.CreateReportPage(ctx, selected, cover, res.Date)
	if err != nil {
		log.Error("Failed to create report page", "error", err)
		m.SetError(err.Error())
		if reportURL == "" {
			res.Stopped = "report page not created"
			return res, ctxErr(ctx, err)
		}
	}
	res.ReportURL = reportURL

	log.Info("Step 6: writing closing comment")
	res.Closing = p.deps.Model.ClosingComment(ctx, selected)

	log.Info("Step 7: sending notification")
	if p.deps.Notifier == nil || !p.deps.Notifier.Enabled() {
		log.Info("Skipping Slack notification, SLACK_WEBHOOK_URL is not set", "url", res.ReportURL)
		return res, nil
	}
	if res.ReportURL == "" {
		log.Warn("Skipping Slack notification, the report page has no URL")
		return res, nil
	}
	msg := slack.Message{
		Channel:   p.settings.Channel,
		ReportURL: res.ReportURL,
		Articles:  selected,
		Date:      res.Date,
		Closing:   res.Closing,
	}
	if err := p.deps.Notifier.Send(ctx, msg); err != nil {
		log.Error("Slack notification failed", "error", err)
		return res, ctxErr(ctx, err)
	}
	res.Notified = true

	log.Info("Report finished", "selected", len(selected), "url", res.ReportURL, "duration", time.Since(start))
	return res, nil
}

// process enriches every article in place, keeping input order.
func (p *Pipeline) process(ctx context.Context, articles []news.Article) error {
	var eg errgroup.Group
	eg.SetLimit(p.settings.Concurrency)
	for i := range articles {
		i := i
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			p.processArticle(ctx, &articles[i])
			return nil
		})
	}
	_ = eg.Wait()
	return ctx.Err()
}

func (p *Pipeline) processArticle(ctx context.Context, a *news.Article) {
	a.Title = sanitize.StripHTML(a.Title)
	log := p.log.With("title", a.Title)

	// Both branches summarize; only the log line differs.
	if p.deps.Language.IsForeign(a.RawSummary) {
		log.Info("Translating and summarizing article")
	} else {
		log.Info("Article is in the report language, summarizing without translation")
	}
	s := p.deps.Model.Summarize(ctx, a.RawSummary)
	a.Summary = sanitize.StripHTML(s.Summary)
	a.Points = s.Points
	a.Comment = s.Comment

	a.Category = p.deps.Model.Categorize(ctx, a.Title, a.Summary)
	log.Debug("Article categorized", "category", a.Category)
}

func (p *Pipeline) attachPhotos(ctx context.Context, articles []news.Article) {
	if p.deps.Photos == nil {
		return
	}
	for i := range articles {
		if p.settings.PhotoPolicy == config.PhotoPolicyLead && i > 0 {
			break
		}
		if ctx.Err() != nil {
			return
		}

		a := &articles[i]
		if a.ImageURL != "" {
			continue
		}
		log := p.log.With("title", a.Title)

		keywords := p.deps.Model.ImageKeywords(ctx, a.Title, a.Summary, a.Category)
		if keywords == "" {
			log.Warn("No image keywords generated")
			continue
		}
		if photo, ok := p.deps.Photos.Find(ctx, keywords); ok {
			a.ImageURL = photo
			log.Info("Photo found", "url", photo)
		} else {
			log.Info("No photo found", "keywords", keywords)
		}
	}
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return ctx.Err()
	}
	return nil
}
