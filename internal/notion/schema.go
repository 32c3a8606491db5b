package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
)

const StatusPublished = "Published"

// ErrSchemaMismatch means a database property exists with the wrong type
// and must be fixed by hand.
var ErrSchemaMismatch = errors.New("database property has unexpected type")

type expectedProperty struct {
	name   string
	config notionapi.PropertyConfig
}

func publishedOption() notionapi.Option {
	return notionapi.Option{Name: StatusPublished, Color: notionapi.ColorGreen}
}

func statusConfig(options []notionapi.Option) *notionapi.StatusPropertyConfig {
	return &notionapi.StatusPropertyConfig{
		Type:   notionapi.PropertyConfigStatus,
		Status: notionapi.StatusConfig{Options: options},
	}
}

func (c *Client) expectedProperties() []expectedProperty {
	return []expectedProperty{
		{c.props.Name, &notionapi.TitlePropertyConfig{Type: notionapi.PropertyConfigTypeTitle}},
		{c.props.Date, &notionapi.DatePropertyConfig{Type: notionapi.PropertyConfigTypeDate}},
		{c.props.Status, statusConfig([]notionapi.Option{publishedOption()})},
		{c.props.Abstract, &notionapi.RichTextPropertyConfig{Type: notionapi.PropertyConfigTypeRichText}},
		{c.props.URL, &notionapi.URLPropertyConfig{Type: notionapi.PropertyConfigTypeURL}},
	}
}

// EnsureProperties makes the database carry every report property. Missing
// properties and a missing Published status are added in one update; no
// update is sent when nothing is missing.
func (c *Client) EnsureProperties(ctx context.Context) error {
	db, err := c.api.Database.Get(ctx, c.databaseID)
	if err != nil {
		return fmt.Errorf("retrieve database: %w", err)
	}

	updates := notionapi.PropertyConfigs{}
	for _, want := range c.expectedProperties() {
		wantType := want.config.GetType()
		existing, ok := db.Properties[want.name]
		if !ok || existing == nil {
			c.log.Info("Adding missing database property", "property", want.name, "type", wantType)
			updates[want.name] = want.config
			continue
		}

		if existing.GetType() != wantType {
			c.log.Error("Database property has the wrong type, fix it manually",
				"property", want.name, "expected", wantType, "actual", existing.GetType())
			return fmt.Errorf("%w: %q is %s, want %s", ErrSchemaMismatch, want.name, existing.GetType(), wantType)
		}

		if wantType != notionapi.PropertyConfigStatus {
			continue
		}
		var options []notionapi.Option
		switch status := existing.(type) {
		case *notionapi.StatusPropertyConfig:
			options = status.Status.Options
		case notionapi.StatusPropertyConfig:
			options = status.Status.Options
		}
		if !hasOption(options, StatusPublished) {
			c.log.Info("Adding Published status option", "property", want.name)
			updates[want.name] = statusConfig(append(options, publishedOption()))
		}
	}

	if len(updates) == 0 {
		c.log.Debug("Database properties are up to date")
		return nil
	}

	if _, err := c.api.Database.Update(ctx, c.databaseID, &notionapi.DatabaseUpdateRequest{Properties: updates}); err != nil {
		return fmt.Errorf("update database: %w", err)
	}
	c.log.Info("Database properties updated", "count", len(updates))
	return nil
}

func hasOption(options []notionapi.Option, name string) bool {
	for _, o := range options {
		if o.Name == name {
			return true
		}
	}
	return false
}
