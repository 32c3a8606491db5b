// Package config builds the single run configuration passed into every component.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	PhotoPolicyAll  = "all"  // every curated article gets a photo lookup
	PhotoPolicyLead = "lead" // only the lead (cover) article
)

// Error is a fatal configuration problem: a missing credential or source list.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Missing reports a required option that was not set.
func Missing(key string) *Error {
	return &Error{Key: key, Reason: "is required"}
}

// IsConfigError reports whether err is (or wraps) a configuration error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}

type Config struct {
	// Model settings
	GeminiAPIKey         string
	GeminiModel          string
	LLMTimeout           time.Duration
	LLMRequestsPerMinute int // 0 = no pacing
	MaxLLMRequests       int // per run, 0 = unlimited
	LLMConcurrency       int

	// Feed settings
	FeedURLs         []string
	ReportConfigPath string
	FeedTimeout      time.Duration
	UserAgent        string
	ScrapeImages     bool

	// Report content
	Language      string // ISO 639-1 code of the report language
	LanguageName  string
	Audience      string
	Categories    []string
	OtherCategory string
	Texts         Texts

	// Photo search
	UnsplashAccessKey string
	UnsplashBaseURL   string
	PhotoTimeout      time.Duration
	PhotoPolicy       string

	// Report sink
	NotionAPIKey     string
	NotionDatabaseID string
	NotionBaseURL    string
	NotionProperties PropertyNames
	NotionTimeout    time.Duration

	// Notification sink
	SlackWebhookURL string
	SlackChannel    string

	// Run settings
	ReportDate       string // empty = date of the run
	Schedule         string
	Timezone         string
	EnableMonitoring bool
	MonitoringPort   string
	Debug            bool
}

// PropertyNames maps the report database properties to their names in the workspace.
type PropertyNames struct {
	Name     string
	Date     string
	Status   string
	Abstract string
	URL      string
}

// Texts are the fixed, user-facing strings of the published report.
type Texts struct {
	ReportTitle   string `yaml:"report_title"`
	ReportIntro   string `yaml:"report_intro"`
	SlackIntro    string `yaml:"slack_intro"`
	PointsHeading string `yaml:"points_heading"`
	DetailsLabel  string `yaml:"details_label"`
}

// DefaultCategories is the fixed category enumeration used when the YAML file does not define one.
var DefaultCategories = []string{
	"データサイエンス",
	"データエンジニアリング",
	"データ分析",
	"人工知能",
	"プログラミング",
	"パフォーマンス最適化",
}

func defaults() *Config {
	return &Config{
		GeminiModel:      "gemini-2.5-flash",
		LLMTimeout:       60 * time.Second,
		LLMConcurrency:   1,
		ReportConfigPath: "configs/report.yaml",
		FeedTimeout:      10 * time.Second,
		UserAgent:        "RSSFetcher/1.0",
		Language:         "ja",
		LanguageName:     "Japanese",
		Audience:         "learners of data science, data engineering and data analysis",
		Categories:       append([]string(nil), DefaultCategories...),
		OtherCategory:    "その他",
		Texts: Texts{
			ReportTitle:   "AIニュースレポート",
			ReportIntro:   "データサイエンス、データエンジニアリング、データ分析の学習者向けに、AIの最新ニュースを毎日お届けします。",
			SlackIntro:    "データサイエンス、データエンジニアリング、データ分析の学習者の皆さん、最新のAIニュースで知識をアップデートし、日々の学習に活かしましょう！今日のニュースが、皆さんの次のステップへのヒントになることを願っています。",
			PointsHeading: "初学者向けポイント",
			DetailsLabel:  "Notionで詳細を見る",
		},
		UnsplashBaseURL: "https://api.unsplash.com",
		PhotoTimeout:    10 * time.Second,
		PhotoPolicy:     PhotoPolicyAll,
		NotionBaseURL:   "https://api.notion.com",
		NotionTimeout:   30 * time.Second,
		NotionProperties: PropertyNames{
			Name:     "Name",
			Date:     "Date",
			Status:   "Status",
			Abstract: "Abstract",
			URL:      "URL",
		},
		SlackChannel:   "#ai-news",
		Schedule:       "0 7 * * *",
		Timezone:       "UTC",
		MonitoringPort: "8080",
	}
}

// Load reads .env (if present), the optional YAML report file and the
// environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Cannot read .env file", "error", err)
	}

	cfg := defaults()
	cfg.ReportConfigPath = getEnvOrDefault("REPORT_CONFIG_PATH", cfg.ReportConfigPath)

	file, err := LoadFile(cfg.ReportConfigPath)
	switch {
	case err == nil:
		cfg.applyFile(file)
	case errors.Is(err, os.ErrNotExist):
		// optional
	default:
		return nil, fmt.Errorf("load %s: %w", cfg.ReportConfigPath, err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() {
	c.GeminiAPIKey = firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
	c.GeminiModel = getEnvOrDefault("GEMINI_MODEL", c.GeminiModel)
	c.LLMTimeout = getEnvDurationOrDefault("LLM_TIMEOUT", c.LLMTimeout)
	c.LLMRequestsPerMinute = getEnvIntOrDefault("LLM_REQUESTS_PER_MINUTE", c.LLMRequestsPerMinute)
	c.MaxLLMRequests = getEnvIntOrDefault("MAX_LLM_REQUESTS", c.MaxLLMRequests)
	if v := getEnvIntOrDefault("LLM_CONCURRENCY", c.LLMConcurrency); v > 0 {
		c.LLMConcurrency = v
	}

	if urls := splitList(firstEnv("RSS_FEED_URLS", "GOOGLE_ALERTS_RSS_URLS")); len(urls) > 0 {
		c.FeedURLs = urls
	}
	c.FeedTimeout = getEnvDurationOrDefault("FEED_TIMEOUT", c.FeedTimeout)
	c.ScrapeImages = getEnvBoolOrDefault("SCRAPE_IMAGES", c.ScrapeImages)

	c.Language = getEnvOrDefault("REPORT_LANGUAGE", c.Language)
	c.LanguageName = getEnvOrDefault("REPORT_LANGUAGE_NAME", c.LanguageName)

	c.UnsplashAccessKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	c.PhotoTimeout = getEnvDurationOrDefault("PHOTO_TIMEOUT", c.PhotoTimeout)
	c.PhotoPolicy = strings.ToLower(getEnvOrDefault("PHOTO_POLICY", c.PhotoPolicy))

	c.NotionAPIKey = os.Getenv("NOTION_API_KEY")
	c.NotionDatabaseID = os.Getenv("NOTION_DATABASE_ID")
	c.NotionProperties.Name = getEnvOrDefault("NOTION_PROPERTY_NAME", c.NotionProperties.Name)
	c.NotionProperties.Date = getEnvOrDefault("NOTION_PROPERTY_DATE", c.NotionProperties.Date)
	c.NotionProperties.Status = getEnvOrDefault("NOTION_PROPERTY_STATUS", c.NotionProperties.Status)
	c.NotionProperties.Abstract = getEnvOrDefault("NOTION_PROPERTY_ABSTRACT", c.NotionProperties.Abstract)
	c.NotionProperties.URL = getEnvOrDefault("NOTION_PROPERTY_URL", c.NotionProperties.URL)

	c.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	c.SlackChannel = getEnvOrDefault("SLACK_CHANNEL", c.SlackChannel)

	c.ReportDate = os.Getenv("REPORT_DATE")
	c.Schedule = getEnvOrDefault("REPORT_SCHEDULE", c.Schedule)
	c.Timezone = getEnvOrDefault("REPORT_TIMEZONE", c.Timezone)
	c.EnableMonitoring = getEnvBoolOrDefault("ENABLE_HTTP_MONITORING", c.EnableMonitoring)
	c.MonitoringPort = getEnvOrDefault("MONITORING_PORT", c.MonitoringPort)
	c.Debug = os.Getenv("DEBUG") == "true"
}

// Validate checks the options a run cannot start without.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return Missing("GOOGLE_API_KEY")
	}
	if len(c.FeedURLs) == 0 {
		return Missing("RSS_FEED_URLS")
	}
	if c.NotionAPIKey == "" {
		return Missing("NOTION_API_KEY")
	}
	if c.NotionDatabaseID == "" {
		return Missing("NOTION_DATABASE_ID")
	}
	if len(c.Categories) == 0 {
		return &Error{Key: "categories", Reason: "at least one category is required"}
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat == "" || seen[cat] {
			return &Error{Key: "categories", Reason: fmt.Sprintf("invalid or duplicate category %q", cat)}
		}
		if cat == c.OtherCategory {
			return &Error{Key: "categories", Reason: "the catch-all label must not be listed as a category"}
		}
		seen[cat] = true
	}
	if c.PhotoPolicy != PhotoPolicyAll && c.PhotoPolicy != PhotoPolicyLead {
		return &Error{Key: "PHOTO_POLICY", Reason: "must be 'all' or 'lead'"}
	}
	return nil
}

// Date returns the report date, defaulting to the given time.
func (c *Config) Date(now time.Time) string {
	if c.ReportDate != "" {
		return c.ReportDate
	}
	return now.Format("2006-01-02")
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, reverting to UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
