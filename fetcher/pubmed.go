// ABOUTME: This file fetches recent pharmaceutical research abstracts from
// ABOUTME: PubMed through the NCBI E-utilities search and fetch endpoints.
package fetcher

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pharma-radar/config"
	"pharma-radar/domain"
)

var pubmedSearchTerms = []string{
	"pharmaceutical",
	"drug development",
	"clinical trial",
	"adverse effects",
	"drug approval",
	"pharmacology",
}

type PubMedFetcher struct {
	baseURL   string
	maxIDs    int
	lookback  time.Duration
	maxLength int
	client    *HTTPClient
	logger    *slog.Logger
}

func NewPubMedFetcher(cfg config.SourcesConfig, client *HTTPClient, logger *slog.Logger) *PubMedFetcher {
	return &PubMedFetcher{
		baseURL:   cfg.PubMedURL,
		maxIDs:    cfg.PubMedMax,
		lookback:  cfg.Lookback,
		maxLength: cfg.MaxTextLength,
		client:    client,
		logger:    logger,
	}
}

func (f *PubMedFetcher) Name() string {
	return "pubmed"
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	Articles []struct {
		MedlineCitation struct {
			PMID    string `xml:"PMID"`
			Article struct {
				Title    string `xml:"ArticleTitle"`
				Abstract struct {
					Sections []string `xml:"AbstractText"`
				} `xml:"Abstract"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

func (f *PubMedFetcher) Fetch(ctx context.Context) ([]domain.RawItem, error) {
	ids, err := f.search(ctx)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		f.logger.InfoContext(ctx, "pubmed search returned no articles")
		return nil, nil
	}

	items, err := f.fetchArticles(ctx, ids)
	if err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "pubmed abstracts fetched", "items", len(items))

	return items, nil
}

// search runs the esearch step and returns the matching article IDs.
func (f *PubMedFetcher) search(ctx context.Context) ([]string, error) {
	now := time.Now()
	start := now.Add(-f.lookback).Format("2006/01/02")
	end := now.Format("2006/01/02")

	query := fmt.Sprintf("(%s) AND %s:%s[PDAT]",
		strings.Join(pubmedSearchTerms, " OR "), start, end)

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(f.maxIDs))
	params.Set("retmode", "json")
	params.Set("sort", "pub_date")

	resp, err := f.client.Get(ctx, f.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed search failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode pubmed search response: %w", err)
	}

	return parsed.Result.IDList, nil
}

// fetchArticles runs the efetch step and flattens title plus abstract into
// one item per article. Articles missing either field are skipped.
func (f *PubMedFetcher) fetchArticles(ctx context.Context, ids []string) ([]domain.RawItem, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	resp, err := f.client.Get(ctx, f.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode pubmed article set: %w", err)
	}

	now := time.Now()
	var items []domain.RawItem

	for _, article := range parsed.Articles {
		citation := article.MedlineCitation
		title := strings.TrimSpace(citation.Article.Title)
		abstract := strings.TrimSpace(strings.Join(citation.Article.Abstract.Sections, " "))

		if title == "" || abstract == "" {
			continue
		}

		items = append(items, domain.RawItem{
			Text:       Truncate(title+". "+abstract, f.maxLength),
			Source:     "pubmed:" + citation.PMID,
			Timestamp:  now,
			ExternalID: stringPtr("https://pubmed.ncbi.nlm.nih.gov/" + citation.PMID + "/"),
		})
	}

	return items, nil
}
