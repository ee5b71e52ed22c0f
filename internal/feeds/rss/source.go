// Package rss fetches items from RSS/Atom feeds.
package rss

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/newswatch/newswatch/internal/feeds"
)

// Source fetches items from a single RSS/Atom feed
type Source struct {
	url    string
	parser *gofeed.Parser
}

// New creates a new RSS source
func New(feedURL string) *Source {
	return &Source{
		url:    feedURL,
		parser: gofeed.NewParser(),
	}
}

func (s *Source) Name() string {
	return s.url
}

func (s *Source) Fetch(ctx context.Context) ([]feeds.Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}

	sourceName := feed.Title
	if sourceName == "" {
		sourceName = hostOf(s.url)
	}

	items := make([]feeds.Item, 0, len(feed.Items))
	now := time.Now()

	for _, entry := range feed.Items {
		published := now
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		description := entry.Description
		if description == "" && entry.Content != "" {
			description = truncate(entry.Content, 300)
		}

		items = append(items, feeds.Item{
			Title:       entry.Title,
			Description: description,
			Link:        entry.Link,
			Published:   published,
			Source:      sourceName,
		})
	}

	return items, nil
}

func hostOf(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Host == "" {
		return feedURL
	}
	return u.Host
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
