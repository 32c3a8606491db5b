// Package llm turns article text into structured judgments using a hosted
// model: translation and summary, category, per-category curation, closing
// remark and photo keywords. Every operation degrades to a documented
// fallback value instead of returning an error.
package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/ainewsreport/internal/logger"
	"github.com/deusflow/ainewsreport/internal/metrics"
	"github.com/deusflow/ainewsreport/internal/ratelimit"
)

const (
	// SummaryFailurePrefix precedes the untouched input when the model call fails.
	SummaryFailurePrefix = "翻訳と要約に失敗しました: "

	// DefaultClosingComment is published when no closing remark can be generated.
	DefaultClosingComment = "今日のAIニュースレポートはいかがでしたか？ぜひコミュニティで感想や意見を共有し、議論を深めましょう！"

	maxPoints       = 3
	maxCurated      = 3
	previewRunes    = 200
	defaultLanguage = "Japanese"
)

// Generator is a single-turn text model. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	Language    string // report language name used in prompts
	Audience    string
	Categories  []string
	Other       string // sentinel label for unclassified articles
	Timeout     time.Duration
	Concurrency int
	Limiter     *ratelimit.Limiter
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Gateway holds no per-article state; each call is independent.
type Gateway struct {
	gen         Generator
	language    string
	audience    string
	categories  []string
	other       string
	timeout     time.Duration
	concurrency int
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func New(gen Generator, opts Options) *Gateway {
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Gateway{
		gen:         gen,
		language:    opts.Language,
		audience:    opts.Audience,
		categories:  append([]string(nil), opts.Categories...),
		other:       opts.Other,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		limiter:     opts.Limiter,
		metrics:     opts.Metrics,
		log:         logger.OrDefault(opts.Logger),
	}
}

func (g *Gateway) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		g.metrics.IncrementLLMFailures()
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.metrics.IncrementLLMCalls()
	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.metrics.IncrementLLMFailures()
		return "", err
	}
	return strings.TrimSpace(text), nil
}
