// ABOUTME: This file scrapes agency press-release index pages (FDA, EMA) and
// ABOUTME: turns each announcement entry into a raw item.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pharma-radar/config"
	"pharma-radar/domain"
)

// entrySelectors covers the markup the supported agency sites use for
// their announcement listings. The generic heading fallback keeps new
// page layouts from producing zero items.
var entrySelectors = []string{
	"article",
	".views-row",
	".ecl-content-item",
	"h2, h3",
}

type RegulatoryFetcher struct {
	pages     []config.PageSource
	client    *HTTPClient
	maxLength int
	lookback  time.Duration
	logger    *slog.Logger
}

func NewRegulatoryFetcher(cfg config.SourcesConfig, client *HTTPClient, logger *slog.Logger) *RegulatoryFetcher {
	return &RegulatoryFetcher{
		pages:     cfg.RegulatoryPages,
		client:    client,
		maxLength: cfg.MaxTextLength,
		lookback:  cfg.Lookback,
		logger:    logger,
	}
}

func (f *RegulatoryFetcher) Name() string {
	return "regulatory"
}

// Fetch scrapes every configured page. A failing page is logged and
// skipped so the remaining agencies still contribute items.
func (f *RegulatoryFetcher) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	now := time.Now()
	var items []domain.RawItem

	for _, page := range f.pages {
		pageItems, err := f.fetchPage(ctx, page, now)
		if err != nil {
			f.logger.WarnContext(ctx, "regulatory page fetch failed",
				"page", page.Name, "error", err)
			continue
		}

		f.logger.InfoContext(ctx, "regulatory page fetched",
			"page", page.Name, "items", len(pageItems))
		items = append(items, pageItems...)
	}

	return items, nil
}

func (f *RegulatoryFetcher) fetchPage(ctx context.Context, page config.PageSource, now time.Time) ([]domain.RawItem, error) {
	resp, err := f.client.GetPage(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", page.Name, err)
	}

	base, err := url.Parse(page.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", page.URL, err)
	}

	var items []domain.RawItem
	seen := make(map[string]bool)

	for _, selector := range entrySelectors {
		doc.Find(selector).Each(func(_ int, entry *goquery.Selection) {
			item, ok := f.parseEntry(entry, page, base, now)
			if !ok {
				return
			}

			key := item.Text
			if item.ExternalID != nil {
				key = *item.ExternalID
			}
			if seen[key] {
				return
			}
			seen[key] = true

			items = append(items, item)
		})

		// The first selector that matches anything owns the page.
		if len(items) > 0 {
			break
		}
	}

	return items, nil
}

// parseEntry extracts a title link and optional summary from one listing
// entry. Entries without a usable title are dropped.
func (f *RegulatoryFetcher) parseEntry(entry *goquery.Selection, page config.PageSource, base *url.URL, now time.Time) (domain.RawItem, bool) {
	link := entry.Find("a").First()
	if link.Length() == 0 && goquery.NodeName(entry) == "a" {
		link = entry
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = strings.TrimSpace(entry.Find("h2, h3").First().Text())
	}
	if title == "" {
		return domain.RawItem{}, false
	}

	published := selectionTimestamp(entry, now)
	if f.lookback > 0 && !withinLookback(published, f.lookback, now) {
		return domain.RawItem{}, false
	}

	summary := strings.TrimSpace(entry.Find("p").First().Text())

	text := title
	if summary != "" {
		text = title + ". " + summary
	}

	var externalID string
	if href, ok := link.Attr("href"); ok {
		externalID = resolveURL(base, href)
	}

	return domain.RawItem{
		Text:       Truncate(text, f.maxLength),
		Source:     "regulatory:" + page.Name,
		Timestamp:  published,
		ExternalID: stringPtr(externalID),
	}, true
}

// selectionTimestamp reads the entry's <time> node. Entries without a
// parseable date keep the fetch time.
func selectionTimestamp(entry *goquery.Selection, now time.Time) time.Time {
	node := entry.Find("time").First()
	if node.Length() == 0 {
		return now
	}

	value, ok := node.Attr("datetime")
	if !ok {
		value = strings.TrimSpace(node.Text())
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}

	return now
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
