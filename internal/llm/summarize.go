package llm

import (
	"context"
	"slices"
)

// Summary is the parsed result of a translate-and-summarize call.
type Summary struct {
	Summary string
	Points  []string
	Comment string
}

// Summarize translates text into the report language when needed and
// condenses it. Unparseable responses become the summary verbatim; failed
// calls return the input behind SummaryFailurePrefix.
func (g *Gateway) Summarize(ctx context.Context, text string) Summary {
	raw, err := g.generate(ctx, summarizePrompt(g.language, g.audience, text))
	if err != nil {
		g.log.Error("Summarize call failed", "error", err)
		return Summary{Summary: SummaryFailurePrefix + text, Points: []string{}}
	}

	cleaned := stripFence(raw)
	s, err := parseSummary(cleaned)
	if err != nil {
		g.metrics.IncrementParseFailures()
		g.log.Warn("Failed to parse summary JSON, using raw response",
			"error", err,
			"response", preview(cleaned))
		return Summary{Summary: cleaned, Points: []string{}}
	}
	return s
}

// Categorize returns one of the configured categories, or the sentinel
// label when the answer is not an exact match or the call fails.
func (g *Gateway) Categorize(ctx context.Context, title, summary string) string {
	answer, err := g.generate(ctx, categorizePrompt(g.categories, title, summary))
	if err != nil {
		g.log.Error("Categorize call failed", "title", title, "error", err)
		g.metrics.IncrementUnclassified()
		return g.other
	}

	if slices.Contains(g.categories, answer) {
		return answer
	}

	g.log.Debug("Category not recognized", "title", title, "answer", answer)
	g.metrics.IncrementUnclassified()
	return g.other
}
