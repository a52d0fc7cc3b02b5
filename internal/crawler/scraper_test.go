package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefwire/briefwire/internal/domain"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
<title>Fallback Title</title>
<meta property="og:title" content="Treasury Announces Buyback Schedule">
<meta property="og:description" content="The department published its quarterly buyback calendar.">
<meta property="og:image" content="/images/buyback.jpg">
</head>
<body><p>story</p></body>
</html>`

func TestEnrichBackfillsMissingDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{{URL: srv.URL + "/story", Title: "Treasury Announces Buyback Schedule"}}

	out := s.Enrich(context.Background(), Options{}, articles)
	require.Len(t, out, 1)

	assert.Equal(t, "The department published its quarterly buyback calendar.", out[0].Description)
	assert.Equal(t, srv.URL+"/images/buyback.jpg", out[0].ImageURL)
	assert.Equal(t, "Treasury Announces Buyback Schedule", out[0].Title)
}

func TestEnrichSkipsDescribedArticles(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{{URL: srv.URL, Title: "Has one", Description: "already summarized"}}

	out := s.Enrich(context.Background(), Options{}, articles)
	require.Len(t, out, 1)

	assert.Equal(t, "already summarized", out[0].Description)
	assert.Zero(t, hits.Load())
}

func TestEnrichKeepsArticleOnFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{{URL: srv.URL, Title: "Original"}}

	out := s.Enrich(context.Background(), Options{}, articles)
	require.Len(t, out, 1)

	assert.Equal(t, "Original", out[0].Title)
	assert.Empty(t, out[0].Description)
}

func TestEnrichFillsTitleFromPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, articlePage)
	}))
	defer srv.Close()

	s := NewScraper(nil, nil)
	articles := []domain.Article{{URL: srv.URL}}

	out := s.Enrich(context.Background(), Options{}, articles)
	require.Len(t, out, 1)
	assert.Equal(t, "Treasury Announces Buyback Schedule", out[0].Title)
}

func TestParseMetaFallsBackToTitleTag(t *testing.T) {
	meta, err := parseMeta([]byte(`<html><head><title>Plain Title</title><meta name="description" content="plain desc"></head></html>`))
	require.NoError(t, err)

	assert.Equal(t, "Plain Title", meta.Title)
	assert.Equal(t, "plain desc", meta.Description)
	assert.Empty(t, meta.ImageURL)
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a.jpg", resolveURL("https://cdn.example.com/a.jpg", "https://example.com/story"))
	assert.Equal(t, "https://example.com/images/a.jpg", resolveURL("/images/a.jpg", "https://example.com/story"))
	assert.Empty(t, resolveURL("", "https://example.com"))
}
