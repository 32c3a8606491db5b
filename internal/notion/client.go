// Package notion publishes the daily report as a page of a Notion database.
package notion

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/deusflow/ainewsreport/internal/config"
	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	APIVersion     = "2022-06-28"
	DefaultTimeout = 30 * time.Second
)

type Options struct {
	APIKey     string
	DatabaseID string
	// BaseURL replaces the scheme and host of every API request.
	BaseURL       string
	Timeout       time.Duration
	Properties    config.PropertyNames
	Texts         config.Texts
	OtherCategory string
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

type Client struct {
	api        *notionapi.Client
	databaseID notionapi.DatabaseID
	props      config.PropertyNames
	texts      config.Texts
	other      string
	metrics    *metrics.Metrics
	log        *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, config.Missing("NOTION_API_KEY")
	}
	if strings.TrimSpace(opts.DatabaseID) == "" {
		return nil, config.Missing("NOTION_DATABASE_ID")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: opts.Timeout}
	if opts.BaseURL != "" && opts.BaseURL != DefaultBaseURL {
		base, err := url.Parse(opts.BaseURL)
		if err != nil || base.Host == "" {
			return nil, &config.Error{Key: "NOTION_BASE_URL", Reason: "must be an absolute URL"}
		}
		httpClient.Transport = &baseURLTransport{base: base, next: http.DefaultTransport}
	}

	api := notionapi.NewClient(notionapi.Token(opts.APIKey),
		notionapi.WithHTTPClient(httpClient),
		notionapi.WithVersion(APIVersion),
		notionapi.WithRetry(0),
	)

	return &Client{
		api:        api,
		databaseID: notionapi.DatabaseID(opts.DatabaseID),
		props:      opts.Properties,
		texts:      opts.Texts,
		other:      opts.OtherCategory,
		metrics:    opts.Metrics,
		log:        logger.With(opts.Logger, "notion"),
	}, nil
}

// baseURLTransport sends API requests to another host, such as a regional
// proxy or a local test server.
type baseURLTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *baseURLTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
