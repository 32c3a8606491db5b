package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the optional YAML report configuration:
//
//	feeds:
//	  - https://...
//	categories:
//	  - データサイエンス
//	other_category: その他
type File struct {
	Feeds         []string `yaml:"feeds"`
	Categories    []string `yaml:"categories"`
	OtherCategory string   `yaml:"other_category"`
	Audience      string   `yaml:"audience"`
	Language      string   `yaml:"language"`
	LanguageName  string   `yaml:"language_name"`
	Texts         Texts    `yaml:"texts"`
}

// LoadFile reads the YAML report configuration.
func LoadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &f, nil
}

func (c *Config) applyFile(f *File) {
	if len(f.Feeds) > 0 {
		c.FeedURLs = f.Feeds
	}
	if len(f.Categories) > 0 {
		c.Categories = f.Categories
	}
	if f.OtherCategory != "" {
		c.OtherCategory = f.OtherCategory
	}
	if f.Audience != "" {
		c.Audience = f.Audience
	}
	if f.Language != "" {
		c.Language = f.Language
	}
	if f.LanguageName != "" {
		c.LanguageName = f.LanguageName
	}

	if f.Texts.ReportTitle != "" {
		c.Texts.ReportTitle = f.Texts.ReportTitle
	}
	if f.Texts.ReportIntro != "" {
		c.Texts.ReportIntro = f.Texts.ReportIntro
	}
	if f.Texts.SlackIntro != "" {
		c.Texts.SlackIntro = f.Texts.SlackIntro
	}
	if f.Texts.PointsHeading != "" {
		c.Texts.PointsHeading = f.Texts.PointsHeading
	}
	if f.Texts.DetailsLabel != "" {
		c.Texts.DetailsLabel = f.Texts.DetailsLabel
	}
}
