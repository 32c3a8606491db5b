package notion

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"github.com/deusflow/ainewsreport/internal/news"
)

const (
	maxBlocksPerRequest = 100
	maxTextRunes        = 2000
)

// CreateReportPage publishes articles as one report page and returns the
// page URL. Children beyond the API limit are appended in batches.
func (c *Client) CreateReportPage(ctx context.Context, articles []news.Article, coverURL, date string) (string, error) {
	title := fmt.Sprintf("%s - %s", c.texts.ReportTitle, date)
	children := c.reportBlocks(articles)
	first, rest := splitBlocks(children)

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: c.databaseID,
		},
		Properties: c.reportProperties(title, date, articles),
		Children:   first,
	}
	if validURL(coverURL) {
		req.Cover = externalImage(coverURL)
	} else if coverURL != "" {
		c.log.Warn("Ignoring invalid cover image URL", "url", coverURL)
	}

	page, err := c.api.Page.Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}

	for len(rest) > 0 {
		var batch []notionapi.Block
		batch, rest = splitBlocks(rest)
		_, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(page.ID), &notionapi.AppendBlockChildrenRequest{
			Children: batch,
		})
		if err != nil {
			return page.URL, fmt.Errorf("append blocks: %w", err)
		}
	}

	c.metrics.IncrementReportsPublished()
	c.log.Info("Report page created", "url", page.URL, "articles", len(articles), "blocks", len(children))
	return page.URL, nil
}

func (c *Client) reportProperties(title, date string, articles []news.Article) notionapi.Properties {
	var categories []string
	for _, g := range news.GroupByCategory(articles, c.other) {
		categories = append(categories, g.Category)
	}

	props := notionapi.Properties{
		c.props.Name:     notionapi.TitleProperty{Title: richText(title, "")},
		c.props.Status:   notionapi.StatusProperty{Status: notionapi.Status{Name: StatusPublished}},
		c.props.Abstract: notionapi.RichTextProperty{RichText: richText(strings.Join(categories, "、"), "")},
	}
	if day, err := time.Parse("2006-01-02", date); err == nil {
		start := notionapi.Date(day)
		props[c.props.Date] = notionapi.DateProperty{Date: &notionapi.DateObject{Start: &start}}
	} else {
		c.log.Warn("Report date is not YYYY-MM-DD, leaving the date property empty", "date", date)
	}
	return props
}

func (c *Client) reportBlocks(articles []news.Article) []notionapi.Block {
	blocks := []notionapi.Block{
		paragraph(richText(c.texts.ReportIntro, "")),
		divider(),
	}

	for _, g := range news.GroupByCategory(articles, c.other) {
		blocks = append(blocks, &notionapi.Heading2Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
			Heading2:   notionapi.Heading{RichText: richText("【"+g.Category+"】", "")},
		})
		for _, a := range g.Articles {
			link := ""
			if validURL(a.URL) {
				link = a.URL
			}
			blocks = append(blocks, &notionapi.Heading3Block{
				BasicBlock: basicBlock(notionapi.BlockTypeHeading3),
				Heading3:   notionapi.Heading{RichText: richText(a.Title, link)},
			})
			if validURL(a.ImageURL) {
				blocks = append(blocks, &notionapi.ImageBlock{
					BasicBlock: basicBlock(notionapi.BlockTypeImage),
					Image:      *externalImage(a.ImageURL),
				})
			}
			if a.Summary != "" {
				blocks = append(blocks, paragraph(richText(a.Summary, "")))
			}
			if len(a.Points) > 0 {
				label := richText(c.texts.PointsHeading+":", "")
				label[0].Annotations = &notionapi.Annotations{Bold: true, Color: notionapi.ColorDefault}
				blocks = append(blocks, paragraph(label))
				for _, p := range a.Points {
					blocks = append(blocks, &notionapi.BulletedListItemBlock{
						BasicBlock:       basicBlock(notionapi.BlockTypeBulletedListItem),
						BulletedListItem: notionapi.ListItem{RichText: richText(p, "")},
					})
				}
			}
			blocks = append(blocks, divider())
		}
	}
	return blocks
}

func splitBlocks(blocks []notionapi.Block) (head, tail []notionapi.Block) {
	if len(blocks) <= maxBlocksPerRequest {
		return blocks, nil
	}
	return blocks[:maxBlocksPerRequest], blocks[maxBlocksPerRequest:]
}

func basicBlock(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func richText(content, link string) []notionapi.RichText {
	text := &notionapi.Text{Content: truncate(content)}
	if link != "" {
		text.Link = &notionapi.Link{Url: link}
	}
	return []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: text}}
}

func paragraph(rt []notionapi.RichText) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: rt},
	}
}

func divider() *notionapi.DividerBlock {
	return &notionapi.DividerBlock{BasicBlock: basicBlock(notionapi.BlockTypeDivider)}
}

func externalImage(u string) *notionapi.Image {
	return &notionapi.Image{
		Type:     notionapi.FileTypeExternal,
		External: &notionapi.FileObject{URL: u},
	}
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTextRunes {
		return s
	}
	return string(r[:maxTextRunes])
}

// validURL accepts absolute http(s) URLs only.
func validURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
