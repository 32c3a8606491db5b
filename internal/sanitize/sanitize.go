// Package sanitize strips markup from feed titles and model summaries.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes tags and decodes entities.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		// Parsing a string reader practically never fails; keep a regex path anyway.
		return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(doc.Text())
}
