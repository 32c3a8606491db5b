package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	fenceOpen  = "```json"
	fenceClose = "```"
)

var (
	errNotObject = errors.New("response is not a JSON object")
	errNoArray   = errors.New("JSON array start or end not found")
)

// stripFence trims whitespace and a ```json ... ``` wrapper.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, fenceOpen) {
		text = strings.TrimSpace(text[len(fenceOpen):])
	}
	if strings.HasSuffix(text, fenceClose) {
		text = strings.TrimSpace(text[:len(text)-len(fenceClose)])
	}
	return text
}

type summaryPayload struct {
	Summary string   `json:"summary"`
	Points  []string `json:"points"`
	Comment string   `json:"comment"`
}

// parseSummary decodes a cleaned summarize response. Missing keys default
// to empty values.
func parseSummary(cleaned string) (Summary, error) {
	if !strings.HasPrefix(cleaned, "{") {
		return Summary{}, errNotObject
	}
	var p summaryPayload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Summary{}, err
	}
	return Summary{
		Summary: p.Summary,
		Points:  limitPoints(p.Points),
		Comment: p.Comment,
	}, nil
}

type curatedEntry struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Points   []string `json:"points"`
}

// parseCuration decodes the substring between the first '[' and the last ']'.
func parseCuration(cleaned string) ([]curatedEntry, error) {
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start == -1 || end == -1 || end < start {
		return nil, errNoArray
	}

	var entries []curatedEntry
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func limitPoints(points []string) []string {
	out := make([]string, 0, maxPoints)
	for _, p := range points {
		if len(out) == maxPoints {
			break
		}
		out = append(out, p)
	}
	return out
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes]) + "..."
}
