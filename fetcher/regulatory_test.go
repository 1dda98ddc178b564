package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pharma-radar/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pressPage = `<!DOCTYPE html>
<html><body>
  <article>
    <h2><a href="/news/recall-drug-y">Agency recalls Drug Y</a></h2>
    <p>Batch 42 of Drug Y is being recalled after stability failures.</p>
  </article>
  <article>
    <h2><a href="https://other.example.com/approval">New approval announced</a></h2>
  </article>
  <article>
    <p>Entry without any title link is skipped.</p>
  </article>
</body></html>`

func regulatoryConfig(pages ...config.PageSource) config.SourcesConfig {
	return config.SourcesConfig{
		RegulatoryPages: pages,
		MaxTextLength:   500,
	}
}

func TestRegulatoryFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pressPage)
	}))
	defer server.Close()

	cfg := regulatoryConfig(config.PageSource{Name: "FDA Press", URL: server.URL + "/press"})
	fetcher := NewRegulatoryFetcher(cfg, newTestHTTPClient(), testLogger())

	items, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2, "entries without a title are dropped")

	first := items[0]
	assert.Equal(t, "Agency recalls Drug Y. Batch 42 of Drug Y is being recalled after stability failures.", first.Text)
	assert.Equal(t, "regulatory:FDA Press", first.Source)
	require.NotNil(t, first.ExternalID)
	assert.Equal(t, server.URL+"/news/recall-drug-y", *first.ExternalID, "relative links resolve against the page url")

	second := items[1]
	assert.Equal(t, "New approval announced", second.Text)
	require.NotNil(t, second.ExternalID)
	assert.Equal(t, "https://other.example.com/approval", *second.ExternalID)
}

func TestRegulatoryFetcher_Fetch_HeadingFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<h3><a href="/one">Headline one</a></h3>
			<h3><a href="/two">Headline two</a></h3>
		</body></html>`)
	}))
	defer server.Close()

	cfg := regulatoryConfig(config.PageSource{Name: "EMA News", URL: server.URL})
	fetcher := NewRegulatoryFetcher(cfg, newTestHTTPClient(), testLogger())

	items, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Headline one", items[0].Text)
	assert.Equal(t, "Headline two", items[1].Text)
}

func TestRegulatoryFetcher_Fetch_DatedEntriesFiltered(t *testing.T) {
	recent := time.Now().Add(-2 * 24 * time.Hour).Format("2006-01-02")
	stale := time.Now().Add(-30 * 24 * time.Hour).Format("2006-01-02")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<article>
			  <h2><a href="/fresh">Fresh announcement</a></h2>
			  <time datetime="%s">%s</time>
			</article>
			<article>
			  <h2><a href="/stale">Old announcement</a></h2>
			  <time datetime="%s">%s</time>
			</article>
			<article>
			  <h2><a href="/undated">Undated announcement</a></h2>
			</article>
		</body></html>`, recent, recent, stale, stale)
	}))
	defer server.Close()

	cfg := regulatoryConfig(config.PageSource{Name: "FDA Press", URL: server.URL})
	cfg.Lookback = 7 * 24 * time.Hour
	fetcher := NewRegulatoryFetcher(cfg, newTestHTTPClient(), testLogger())

	items, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2, "entries dated outside the lookback are dropped")
	assert.Equal(t, "Fresh announcement", items[0].Text)
	assert.Equal(t, "Undated announcement", items[1].Text, "undated entries keep the fetch time and stay")

	expected, err := time.Parse("2006-01-02", recent)
	require.NoError(t, err)
	assert.Equal(t, expected, items[0].Timestamp)
}

func TestRegulatoryFetcher_Fetch_BrokenPageIsolated(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, pressPage)
	}))
	defer good.Close()

	cfg := regulatoryConfig(
		config.PageSource{Name: "Broken", URL: broken.URL},
		config.PageSource{Name: "FDA Press", URL: good.URL},
	)
	fetcher := NewRegulatoryFetcher(cfg, newTestHTTPClient(), testLogger())

	items, err := fetcher.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "regulatory:FDA Press", items[0].Source)
}
