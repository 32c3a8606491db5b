package llm

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/deusflow/ainewsreport/internal/news"
)

// Curate asks the model to pick the best articles of every non-empty
// category. Categories are visited in the given order and results keep that
// order; a failure in one category never affects the others.
func (g *Gateway) Curate(ctx context.Context, articles []news.Article, categories []string) []news.Article {
	results := make([][]news.Article, len(categories))

	var eg errgroup.Group
	eg.SetLimit(g.concurrency)
	for i, category := range categories {
		group := news.FilterByCategory(articles, category)
		if len(group) == 0 {
			continue
		}
		i, category := i, category
		eg.Go(func() error {
			results[i] = g.curateCategory(ctx, category, group)
			return nil
		})
	}
	_ = eg.Wait()

	var selected []news.Article
	for _, r := range results {
		selected = append(selected, r...)
	}
	g.metrics.AddCuratedArticles(len(selected))
	return selected
}

func (g *Gateway) curateCategory(ctx context.Context, category string, group []news.Article) []news.Article {
	log := g.log.With("category", category)

	raw, err := g.generate(ctx, curatePrompt(g.language, g.audience, category, group))
	if err != nil {
		log.Error("Curation call failed", "error", err)
		return nil
	}

	entries, err := parseCuration(stripFence(raw))
	if err != nil {
		g.metrics.IncrementParseFailures()
		log.Warn("Failed to parse curation JSON", "error", err, "response", preview(raw))
		return nil
	}

	byTitle := make(map[string]news.Article, len(group))
	for _, a := range group {
		if _, ok := byTitle[a.Title]; !ok {
			byTitle[a.Title] = a
		}
	}

	var out []news.Article
	for _, e := range entries {
		orig, ok := byTitle[e.Title]
		if !ok {
			g.metrics.IncrementUnmatchedEntries()
			log.Warn("Curated title does not match any candidate", "title", e.Title)
			continue
		}

		a := news.Article{
			Title:    e.Title,
			URL:      orig.URL,
			Summary:  e.Summary,
			Category: category,
			Points:   limitPoints(e.Points),
			ImageURL: orig.ImageURL,
		}
		if a.Summary == "" {
			a.Summary = orig.Summary
		}
		if len(a.Points) == 0 {
			a.Points = limitPoints(orig.Points)
		}
		out = append(out, a)
	}

	log.Info("Curated category", "candidates", len(group), "selected", len(out))
	return out
}
