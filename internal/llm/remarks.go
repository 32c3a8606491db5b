package llm

import (
	"context"

	"github.com/deusflow/ainewsreport/internal/news"
)

// ImageKeywords returns comma-separated English photo search terms, or an
// empty string when the call fails.
func (g *Gateway) ImageKeywords(ctx context.Context, title, summary, category string) string {
	keywords, err := g.generate(ctx, imageKeywordsPrompt(title, summary, category))
	if err != nil {
		g.log.Warn("Image keyword generation failed", "title", title, "error", err)
		return ""
	}
	return keywords
}

// ClosingComment never returns an empty string.
func (g *Gateway) ClosingComment(ctx context.Context, articles []news.Article) string {
	comment, err := g.generate(ctx, closingPrompt(g.language, g.audience, articles))
	if err != nil {
		g.log.Warn("Closing comment generation failed, using default", "error", err)
		return DefaultClosingComment
	}
	if comment == "" {
		g.log.Warn("Closing comment was empty, using default")
		return DefaultClosingComment
	}
	return comment
}
