// ABOUTME: This file fetches pharma news items from configured RSS and Atom
// ABOUTME: feeds, stripping markup and filtering by publication window.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"pharma-radar/config"
	"pharma-radar/domain"
)

type RSSFetcher struct {
	feeds     []config.FeedSource
	client    *HTTPClient
	sanitizer *bluemonday.Policy
	lookback  time.Duration
	maxLength int
	logger    *slog.Logger
}

func NewRSSFetcher(cfg config.SourcesConfig, client *HTTPClient, logger *slog.Logger) *RSSFetcher {
	return &RSSFetcher{
		feeds:     cfg.RSSFeeds,
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
		lookback:  cfg.RSSLookback,
		maxLength: cfg.MaxTextLength,
		logger:    logger,
	}
}

func (f *RSSFetcher) Name() string {
	return "rss"
}

// Fetch walks every configured feed and collects items published inside the
// lookback window. A failing feed is logged and skipped so one broken
// provider does not sink the whole cycle.
func (f *RSSFetcher) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	now := time.Now()
	var items []domain.RawItem

	for _, feed := range f.feeds {
		feedItems, err := f.fetchFeed(ctx, feed, now)
		if err != nil {
			f.logger.WarnContext(ctx, "rss feed fetch failed",
				"feed", feed.Name, "error", err)
			continue
		}

		f.logger.InfoContext(ctx, "rss feed fetched",
			"feed", feed.Name, "items", len(feedItems))
		items = append(items, feedItems...)
	}

	return items, nil
}

func (f *RSSFetcher) fetchFeed(ctx context.Context, feed config.FeedSource, now time.Time) ([]domain.RawItem, error) {
	resp, err := f.client.GetFeed(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feed.Name, err)
	}

	var items []domain.RawItem

	for _, entry := range parsed.Items {
		ts := entryTimestamp(entry, now)
		if !withinLookback(ts, f.lookback, now) {
			continue
		}

		title := entry.Title
		if title == "" {
			title = "No title"
		}

		body := f.sanitizer.Sanitize(entryBody(entry))

		externalID := entry.Link
		if externalID == "" {
			externalID = entry.GUID
		}

		items = append(items, domain.RawItem{
			Text:       Truncate(title+". "+body, f.maxLength),
			Source:     "rss:" + feed.Name,
			Timestamp:  ts,
			ExternalID: stringPtr(externalID),
		})
	}

	return items, nil
}

// entryTimestamp prefers the published date, falls back to the update date,
// and finally to the fetch time when the feed carries neither.
func entryTimestamp(entry *gofeed.Item, now time.Time) time.Time {
	if entry.PublishedParsed != nil {
		return *entry.PublishedParsed
	}
	if entry.UpdatedParsed != nil {
		return *entry.UpdatedParsed
	}
	return now
}

func entryBody(entry *gofeed.Item) string {
	if entry.Description != "" {
		return entry.Description
	}
	return entry.Content
}
