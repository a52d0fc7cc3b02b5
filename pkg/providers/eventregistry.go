package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/pkg/httpclient"
)

const eventRegistryDefaultBaseURL = "https://eventregistry.org"

// eventRegistryFetcher fetches articles from the Event Registry (newsapi.ai)
// getArticles endpoint. Used as a fallback when NewsAPI comes back empty.
type eventRegistryFetcher struct {
	client  httpclient.Client
	apiKey  string
	baseURL string
}

// NewEventRegistryFetcher builds a fetcher for Event Registry.
func NewEventRegistryFetcher(client httpclient.Client, apiKey string) Fetcher {
	return NewEventRegistryFetcherWithBaseURL(client, apiKey, eventRegistryDefaultBaseURL)
}

// NewEventRegistryFetcherWithBaseURL builds an Event Registry fetcher against a custom base URL.
func NewEventRegistryFetcherWithBaseURL(client httpclient.Client, apiKey, baseURL string) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &eventRegistryFetcher{
		client:  client,
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

func (f *eventRegistryFetcher) ID() string { return ProviderEventRegistry }

// Fetch runs the query as an OR keyword search sorted newest-first.
func (f *eventRegistryFetcher) Fetch(ctx context.Context, q Query) ([]domain.Article, error) {
	q = q.Sanitize()
	if f.apiKey == "" {
		return nil, fmt.Errorf("eventregistry api key is empty")
	}

	keywords := KeywordsFromQuery(q.Terms)
	if len(keywords) == 0 {
		return nil, fmt.Errorf("eventregistry query terms are empty")
	}

	now := time.Now().UTC()
	payload := eventRegistryRequest{
		Action:         "getArticles",
		Keyword:        keywords,
		KeywordOper:    "or",
		Lang:           eventRegistryLang(q.Language),
		DateStart:      now.Add(-q.Lookback).Format("2006-01-02"),
		DateEnd:        now.Format("2006-01-02"),
		ArticlesSortBy: "date",
		ArticlesCount:  q.MaxArticles,
		ResultType:     "articles",
		APIKey:         f.apiKey,
	}

	resp, err := f.client.PostJSON(ctx, f.baseURL+"/api/v1/article/getArticles", payload, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch eventregistry articles: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("eventregistry returned status %d body: %s", resp.StatusCode(), responseSnippet(body))
	}

	var decoded eventRegistryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode eventregistry response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("eventregistry error: %s", decoded.Error)
	}

	return DedupeAndRank(buildEventRegistryArticles(decoded.Articles.Results), q.MaxArticles), nil
}

// eventRegistryLang maps an ISO-639-1 code to Event Registry's ISO-639-3 dialect.
func eventRegistryLang(lang string) string {
	switch lang {
	case "en", "":
		return "eng"
	case "de":
		return "deu"
	case "es":
		return "spa"
	case "fr":
		return "fra"
	default:
		return lang
	}
}

// buildEventRegistryArticles normalizes raw Event Registry entries.
func buildEventRegistryArticles(raw []eventRegistryArticle) []domain.Article {
	articles := make([]domain.Article, 0, len(raw))
	for _, a := range raw {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			continue
		}

		description := truncateDescription(strings.TrimSpace(a.Body), 500)

		articles = append(articles, domain.Article{
			ID:          hashURL(url),
			ProviderID:  ProviderEventRegistry,
			Title:       strings.TrimSpace(a.Title),
			Description: description,
			Source:      strings.TrimSpace(a.Source.Title),
			URL:         url,
			ImageURL:    strings.TrimSpace(a.Image),
			PublishedAt: parsePublishedAt(a.DateTime),
		})
	}
	return articles
}

// truncateDescription caps the body at max bytes without splitting a rune.
func truncateDescription(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type eventRegistryRequest struct {
	Action         string   `json:"action"`
	Keyword        []string `json:"keyword"`
	KeywordOper    string   `json:"keywordOper"`
	Lang           string   `json:"lang"`
	DateStart      string   `json:"dateStart"`
	DateEnd        string   `json:"dateEnd"`
	ArticlesSortBy string   `json:"articlesSortBy"`
	ArticlesCount  int      `json:"articlesCount"`
	ResultType     string   `json:"resultType"`
	APIKey         string   `json:"apiKey"`
}

type eventRegistryResponse struct {
	Error    string `json:"error"`
	Articles struct {
		Results []eventRegistryArticle `json:"results"`
	} `json:"articles"`
}

type eventRegistryArticle struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	Image    string `json:"image"`
	DateTime string `json:"dateTime"`
	Source   struct {
		Title string `json:"title"`
	} `json:"source"`
}
