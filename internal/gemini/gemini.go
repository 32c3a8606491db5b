package gemini

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/deusflow/ainewsreport/internal/config"
)

const DefaultModel = "gemini-2.5-flash"

// Client is the process-wide authenticated model session. It is safe for
// concurrent use once created.
type Client struct {
	client    *genai.Client
	modelName string
}

// NewClient authenticates once per process. An empty credential is a
// configuration error.
func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, config.Missing("GOOGLE_API_KEY")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, modelName: modelName}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Generate sends a single-turn prompt and returns the concatenated text parts.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.modelName)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini response has no text parts")
	}
	return b.String(), nil
}

// ListModels returns the models that support generateContent.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	it := c.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		if slices.Contains(m.SupportedGenerationMethods, "generateContent") {
			names = append(names, m.Name)
		}
	}
	return names, nil
}
