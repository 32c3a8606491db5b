package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/news"
	"github.com/deusflow/ainewsreport/internal/scraper"
)

const (
	DefaultUserAgent = "RSSFetcher/1.0"
	DefaultTimeout   = 10 * time.Second

	untitled = "タイトルなし"
	noLink   = "#"
)

// PageExtractor looks up metadata of an article page.
type PageExtractor interface {
	Extract(ctx context.Context, url string) (*scraper.Page, error)
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Pages, when set, fills missing image hints and summaries from the
	// article page itself.
	Pages   PageExtractor
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Reader downloads feeds one at a time.
type Reader struct {
	client    *http.Client
	userAgent string
	pages     PageExtractor
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewReader(opts Options) *Reader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Reader{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		pages:     opts.Pages,
		metrics:   opts.Metrics,
		log:       logger.OrDefault(opts.Logger),
	}
}

// FetchAll downloads and parses all feeds in list order. A failing feed is
// logged and skipped.
func (r *Reader) FetchAll(ctx context.Context, urls []string) []news.Article {
	var all []news.Article
	successCount := 0

	for _, url := range urls {
		articles, err := r.fetch(ctx, url)
		if err != nil {
			r.metrics.IncrementFeedErrors()
			r.log.Error("Error fetching RSS feed", "url", url, "error", err)
			continue
		}
		r.metrics.IncrementFeedsFetched()
		r.metrics.AddArticlesFetched(len(articles))
		all = append(all, articles...)
		successCount++
		r.log.Info("Loaded feed", "url", url, "articles", len(articles))
	}

	r.log.Info("Processed RSS feeds", "ok", successCount, "total", len(urls), "articles", len(all))
	return all
}

// Fetch returns every item of one feed. Errors are logged and yield an
// empty result.
func (r *Reader) Fetch(ctx context.Context, url string) []news.Article {
	articles, err := r.fetch(ctx, url)
	if err != nil {
		r.log.Error("Error fetching RSS feed", "url", url, "error", err)
		return nil
	}
	return articles
}

func (r *Reader) fetch(ctx context.Context, url string) ([]news.Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	if len(feed.Items) == 0 {
		r.log.Warn("No articles found in feed", "url", url)
		return nil, nil
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := toArticle(item)
		r.enrich(ctx, &a)
		r.log.Debug("Fetched article", "title", a.Title, "url", a.URL)
		articles = append(articles, a)
	}
	return articles, nil
}

func toArticle(item *gofeed.Item) news.Article {
	a := news.Article{
		Title:    strings.TrimSpace(item.Title),
		URL:      strings.TrimSpace(item.Link),
		ImageURL: imageHint(item),
	}
	if a.Title == "" {
		a.Title = untitled
	}
	if a.URL == "" {
		a.URL = noLink
	}

	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	a.RawSummary = summary
	a.Summary = summary
	return a
}

// imageHint checks the item image, image enclosures, then media:thumbnail
// and media:content.
func imageHint(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if u := mediaURL(item.Extensions, "thumbnail"); u != "" {
		return u
	}
	return mediaURL(item.Extensions, "content")
}

func mediaURL(extensions ext.Extensions, name string) string {
	media, ok := extensions["media"]
	if !ok {
		return ""
	}
	for _, e := range media[name] {
		if medium := e.Attrs["medium"]; medium != "" && medium != "image" {
			continue
		}
		if u := e.Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}

func (r *Reader) enrich(ctx context.Context, a *news.Article) {
	if r.pages == nil || a.URL == noLink {
		return
	}
	if a.ImageURL != "" && strings.TrimSpace(a.RawSummary) != "" {
		return
	}

	page, err := r.pages.Extract(ctx, a.URL)
	if err != nil {
		r.log.Debug("Page lookup failed", "url", a.URL, "error", err)
		return
	}
	if a.ImageURL == "" {
		a.ImageURL = page.ImageURL
	}
	if strings.TrimSpace(a.RawSummary) == "" {
		a.RawSummary = page.Description
		a.Summary = page.Description
	}
}
