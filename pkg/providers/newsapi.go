package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/pkg/httpclient"
)

const newsAPIDefaultBaseURL = "https://newsapi.org"

// newsAPIFetcher fetches articles from the NewsAPI.org /v2/everything endpoint.
type newsAPIFetcher struct {
	client  httpclient.Client
	apiKey  string
	baseURL string
}

// NewNewsAPIFetcher builds a fetcher for NewsAPI.org.
func NewNewsAPIFetcher(client httpclient.Client, apiKey string) Fetcher {
	return NewNewsAPIFetcherWithBaseURL(client, apiKey, newsAPIDefaultBaseURL)
}

// NewNewsAPIFetcherWithBaseURL builds a NewsAPI fetcher against a custom base URL.
func NewNewsAPIFetcherWithBaseURL(client httpclient.Client, apiKey, baseURL string) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsAPIFetcher{
		client:  client,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (f *newsAPIFetcher) ID() string { return ProviderNewsAPI }

// Fetch runs the query against NewsAPI, splitting overlong keyword expressions
// across multiple calls and merging the results.
func (f *newsAPIFetcher) Fetch(ctx context.Context, q Query) ([]domain.Article, error) {
	q = q.Sanitize()
	if f.apiKey == "" {
		return nil, fmt.Errorf("newsapi api key is empty")
	}
	if q.Terms == "" {
		return nil, fmt.Errorf("newsapi query terms are empty")
	}

	from := time.Now().UTC().Add(-q.Lookback).Format(time.RFC3339)

	var merged []domain.Article
	for _, chunk := range SplitQuery(q.Terms, maxQueryLen) {
		articles, err := f.fetchChunk(ctx, q, chunk, from)
		if err != nil {
			return nil, err
		}
		merged = append(merged, articles...)
	}

	return DedupeAndRank(merged, q.MaxArticles), nil
}

// fetchChunk performs a single /v2/everything call for one query chunk.
func (f *newsAPIFetcher) fetchChunk(ctx context.Context, q Query, terms, from string) ([]domain.Article, error) {
	params := map[string]string{
		"q":        terms,
		"from":     from,
		"language": q.Language,
		"sortBy":   "publishedAt",
		"pageSize": strconv.Itoa(q.MaxArticles),
		"apiKey":   f.apiKey,
	}
	if len(q.Domains) > 0 {
		params["domains"] = strings.Join(q.Domains, ",")
	}

	resp, err := f.client.GetWithQuery(ctx, f.baseURL+"/v2/everything", params, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch newsapi articles: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}

	var decoded newsAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}
	if !strings.EqualFold(decoded.Status, "ok") {
		return nil, fmt.Errorf("newsapi error %s: %s", decoded.Code, decoded.Message)
	}

	return buildNewsAPIArticles(decoded.Articles), nil
}

// buildNewsAPIArticles normalizes raw NewsAPI entries, dropping records
// without a URL.
func buildNewsAPIArticles(raw []newsAPIArticle) []domain.Article {
	articles := make([]domain.Article, 0, len(raw))
	for _, a := range raw {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			continue
		}

		articles = append(articles, domain.Article{
			ID:          hashURL(url),
			ProviderID:  ProviderNewsAPI,
			Title:       strings.TrimSpace(a.Title),
			Description: strings.TrimSpace(a.Description),
			Source:      strings.TrimSpace(a.Source.Name),
			URL:         url,
			ImageURL:    strings.TrimSpace(a.URLToImage),
			PublishedAt: parsePublishedAt(a.PublishedAt),
		})
	}
	return articles
}

type newsAPIResponse struct {
	Status       string           `json:"status"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	TotalResults int              `json:"totalResults"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}
