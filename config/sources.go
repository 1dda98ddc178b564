package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// sourcesFile is the on-disk layout of an optional feed-source override
// file. Either list may be omitted, in which case the built-in defaults
// are kept.
type sourcesFile struct {
	RSSFeeds        []FeedSource `yaml:"rss_feeds"`
	RegulatoryPages []PageSource `yaml:"regulatory_pages"`
}

func loadSourcesFile(cfg *SourcesConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if len(file.RSSFeeds) > 0 {
		cfg.RSSFeeds = file.RSSFeeds
	}

	if len(file.RegulatoryPages) > 0 {
		cfg.RegulatoryPages = file.RegulatoryPages
	}

	for _, feed := range cfg.RSSFeeds {
		if feed.Name == "" || feed.URL == "" {
			return fmt.Errorf("feed source requires both name and url: %+v", feed)
		}
	}

	for _, page := range cfg.RegulatoryPages {
		if page.Name == "" || page.URL == "" {
			return fmt.Errorf("page source requires both name and url: %+v", page)
		}
	}

	return nil
}
