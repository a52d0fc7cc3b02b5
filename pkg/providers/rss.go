package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/briefwire/briefwire/internal/domain"
)

// rssFetcher pulls articles from a fixed set of RSS/Atom feeds. It is the
// last-resort fallback when the API providers return nothing: feeds need no
// key and rarely go dark all at once.
type rssFetcher struct {
	parser   *gofeed.Parser
	feedURLs []string
}

// NewRSSFetcher builds a fetcher over the given feed URLs.
func NewRSSFetcher(feedURLs []string) Fetcher {
	urls := make([]string, 0, len(feedURLs))
	for _, u := range feedURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	return &rssFetcher{
		parser:   gofeed.NewParser(),
		feedURLs: urls,
	}
}

func (f *rssFetcher) ID() string { return ProviderRSS }

// Fetch parses every configured feed, keeps items published inside the
// lookback window whose title or description mentions a query keyword, and
// merges the survivors. A feed that fails to parse is skipped rather than
// failing the whole fetch; an error is returned only when no feed succeeded.
func (f *rssFetcher) Fetch(ctx context.Context, q Query) ([]domain.Article, error) {
	q = q.Sanitize()
	if len(f.feedURLs) == 0 {
		return nil, fmt.Errorf("no rss feeds configured")
	}

	keywords := lowerKeywords(KeywordsFromQuery(q.Terms))
	cutoff := time.Now().UTC().Add(-q.Lookback)

	var (
		merged   []domain.Article
		parsed   int
		firstErr error
	)

	for _, feedURL := range f.feedURLs {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("parse feed %s: %w", feedURL, err)
			}
			continue
		}
		parsed++
		merged = append(merged, buildFeedArticles(feed, keywords, cutoff)...)
	}

	if parsed == 0 {
		return nil, firstErr
	}
	return DedupeAndRank(merged, q.MaxArticles), nil
}

// buildFeedArticles converts matching feed items into domain articles.
func buildFeedArticles(feed *gofeed.Feed, keywords []string, cutoff time.Time) []domain.Article {
	source := strings.TrimSpace(feed.Title)

	articles := make([]domain.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}

		publishedAt := time.Time{}
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		}
		if !publishedAt.IsZero() && publishedAt.Before(cutoff) {
			continue
		}
		if !matchesKeywords(item, keywords) {
			continue
		}

		articles = append(articles, domain.Article{
			ID:          hashURL(link),
			ProviderID:  ProviderRSS,
			Title:       strings.TrimSpace(item.Title),
			Description: strings.TrimSpace(item.Description),
			Source:      source,
			URL:         link,
			PublishedAt: publishedAt,
		})
	}
	return articles
}

// matchesKeywords reports whether the item mentions any keyword. An empty
// keyword list matches everything.
func matchesKeywords(item *gofeed.Item, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	haystack := strings.ToLower(item.Title + " " + item.Description)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func lowerKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
