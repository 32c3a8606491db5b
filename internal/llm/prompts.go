package llm

import (
	"fmt"
	"strings"

	"github.com/deusflow/ainewsreport/internal/news"
)

func summarizePrompt(language, audience, text string) string {
	return fmt.Sprintf(`You are an editor writing a daily AI news digest for %[2]s.

If the following text is not written in %[1]s, translate it into %[1]s first.
Then summarize it in %[1]s in about 200 characters and write exactly 3 short
points that help a beginner understand why the news matters.

Respond with a single JSON object and nothing else:
{"summary": "...", "points": ["...", "...", "..."], "comment": "..."}

"points" must contain at most 3 strings. "comment" is optional.

Text:
%[3]s`, language, audience, text)
}

func categorizePrompt(categories []string, title, summary string) string {
	return fmt.Sprintf(`Classify the news article into exactly one of these categories:
%s

Title: %s
Summary: %s

Answer with the category name only, exactly as written above.`,
		strings.Join(categories, ", "), title, summary)
}

func curatePrompt(language, audience, category string, candidates []news.Article) string {
	var b strings.Builder
	for i, a := range candidates {
		fmt.Fprintf(&b, "%d. title: %s\n   summary: %s\n", i+1, a.Title, a.Summary)
	}

	return fmt.Sprintf(`The following articles belong to the category "%[3]s".
Pick at most %[4]d articles that are most useful for %[2]s.

For each picked article write a fresh summary in %[1]s and exactly 3 points.
Copy the title exactly as given, character for character.

Respond with a JSON array only, without any surrounding text:
[{"title": "...", "summary": "...", "points": ["...", "...", "..."]}]

Articles:
%[5]s`, language, audience, category, maxCurated, b.String())
}

func imageKeywordsPrompt(title, summary, category string) string {
	return fmt.Sprintf(`Suggest exactly 3 English search keywords for a stock photo that
illustrates this news article. Answer with the keywords separated by commas
and nothing else.

Title: %s
Summary: %s
Category: %s`, title, summary, category)
}

func closingPrompt(language, audience string, articles []news.Article) string {
	var b strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Title, a.Category)
	}

	return fmt.Sprintf(`Today's AI news report for %[2]s covered these articles:
%[3]s
Write one encouraging closing remark in %[1]s of about 100 characters that
invites readers to share their thoughts with the community. Answer with the
remark only.`, language, audience, b.String())
}
