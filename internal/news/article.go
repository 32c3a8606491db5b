// Package news holds the article record that flows through one pipeline run.
package news

// Article is created by the feed reader and enriched in place by the model
// stages. Category stays empty until classified.
type Article struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	RawSummary string   `json:"-"`
	Summary    string   `json:"summary"`
	Category   string   `json:"category"`
	Points     []string `json:"points"`
	ImageURL   string   `json:"image_url,omitempty"`
	Comment    string   `json:"comment,omitempty"`
}

// FilterByCategory returns the articles labelled with category, in input order.
func FilterByCategory(articles []Article, category string) []Article {
	var out []Article
	for _, a := range articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

// Group is one category section of a rendered report.
type Group struct {
	Category string
	Articles []Article
}

// GroupByCategory groups articles by label in first-seen order. Articles
// without a label are reported under fallback.
func GroupByCategory(articles []Article, fallback string) []Group {
	var groups []Group
	index := map[string]int{}
	for _, a := range articles {
		cat := a.Category
		if cat == "" {
			cat = fallback
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Articles = append(groups[i].Articles, a)
	}
	return groups
}
