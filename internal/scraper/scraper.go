package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultTimeout = 15 * time.Second

// Page is the metadata of an article page
type Page struct {
	Title       string
	Description string
	ImageURL    string
	URL         string
}

type Client struct {
	http      *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Extract gets title, description and lead image of the page at pageURL
func (c *Client) Extract(ctx context.Context, pageURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}

	return &Page{
		Title:       extractTitle(doc),
		Description: metaContent(doc, "og:description", "twitter:description", "description"),
		ImageURL:    resolve(pageURL, metaContent(doc, "og:image", "og:image:url", "twitter:image", "twitter:image:src")),
		URL:         pageURL,
	}, nil
}

// metaContent returns the first non-empty <meta> content among names,
// matching both property= and name= attributes.
func metaContent(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		for _, attr := range []string{"property", "name"} {
			sel := fmt.Sprintf(`meta[%s="%s"]`, attr, name)
			if v, ok := doc.Find(sel).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// extractTitle gets article title
func extractTitle(doc *goquery.Document) string {
	if t := metaContent(doc, "og:title", "twitter:title"); t != "" {
		return t
	}

	selectors := []string{
		"h1",
		"title",
		".article-title",
		".headline",
		".entry-title",
	}

	for _, selector := range selectors {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title
		}
	}

	return ""
}

// resolve makes ref absolute against base. Non-http results are dropped.
func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	u := b.ResolveReference(r)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
