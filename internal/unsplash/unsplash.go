// Package unsplash finds a stock photo for a set of search keywords.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.unsplash.com"
	DefaultTimeout = 10 * time.Second
)

type Options struct {
	AccessKey string
	BaseURL   string
	Timeout   time.Duration
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

type Finder struct {
	accessKey string
	baseURL   string
	client    *http.Client
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewFinder(opts Options) *Finder {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Finder{
		accessKey: strings.TrimSpace(opts.AccessKey),
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		client:    &http.Client{Timeout: opts.Timeout},
		metrics:   opts.Metrics,
		log:       logger.OrDefault(opts.Logger),
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
		} `json:"urls"`
	} `json:"results"`
}

// Find returns the URL of the best landscape photo for keywords. Any
// failure, a missing access key or empty keywords yield ok == false.
func (f *Finder) Find(ctx context.Context, keywords string) (string, bool) {
	if f.accessKey == "" {
		f.log.Warn("UNSPLASH_ACCESS_KEY is not set, skipping photo search")
		return "", false
	}
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return "", false
	}

	photo, err := f.search(ctx, keywords)
	if err != nil {
		f.log.Error("Photo search failed", "keywords", keywords, "error", err)
		return "", false
	}
	if photo == "" {
		f.log.Info("No photo found", "keywords", keywords)
		return "", false
	}

	f.metrics.IncrementPhotosFound()
	return photo, true
}

func (f *Finder) search(ctx context.Context, keywords string) (string, error) {
	q := url.Values{}
	q.Set("query", keywords)
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+f.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash API error: status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(body.Results) == 0 {
		return "", nil
	}

	urls := body.Results[0].URLs
	if urls.Regular != "" {
		return urls.Regular, nil
	}
	return urls.Small, nil
}
