package providers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/pkg/httpclient"
)

// Provider identifiers.
const (
	ProviderNewsAPI       = "newsapi"
	ProviderEventRegistry = "eventregistry"
	ProviderRSS           = "rss"
)

// Query describes one news search across providers.
type Query struct {
	// Topic is the human label for the search, used in digests and logs.
	Topic string
	// Terms is a boolean keyword expression, e.g. `"U.S. Treasury" OR "Treasury Department"`.
	Terms string
	// Domains restricts results to the given source domains when the provider supports it.
	Domains []string
	// Language is an ISO-639-1 code; providers translate it to their own dialect.
	Language string
	// Lookback bounds how far back results may be published.
	Lookback time.Duration
	// MaxArticles caps the merged result set.
	MaxArticles int
}

// Sanitize normalizes the query and applies defaults.
func (q Query) Sanitize() Query {
	q.Topic = strings.TrimSpace(q.Topic)
	q.Terms = strings.TrimSpace(q.Terms)
	q.Language = strings.ToLower(strings.TrimSpace(q.Language))
	if q.Language == "" {
		q.Language = "en"
	}
	if q.Lookback <= 0 {
		q.Lookback = 24 * time.Hour
	}
	if q.MaxArticles <= 0 {
		q.MaxArticles = 25
	}

	domains := make([]string, 0, len(q.Domains))
	for _, d := range q.Domains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		domains = nil
	}
	q.Domains = domains
	return q
}

// Fetcher retrieves recent articles for a query from one news backend.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, q Query) ([]domain.Article, error)
}

// FetcherRegistry resolves fetchers by provider id.
type FetcherRegistry interface {
	FetcherFor(id string) (Fetcher, error)
	All() []Fetcher
}

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	order    []string
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
// Registration order is preserved for fallback iteration.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(f.ID()))
		if _, exists := reg.fetchers[key]; !exists {
			reg.order = append(reg.order, key)
		}
		reg.fetchers[key] = f
	}

	return reg
}

// FetcherFor selects the fetcher registered under the given provider id.
func (r *fetcherRegistry) FetcherFor(id string) (Fetcher, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("provider id is empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[id]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("no fetcher registered for provider %q", id)
}

// All returns the registered fetchers in registration order.
func (r *fetcherRegistry) All() []Fetcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Fetcher, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.fetchers[key])
	}
	return out
}

// DefaultHTTPClient returns a tuned http client for provider fetchers.
func DefaultHTTPClient() httpclient.Client { return httpclient.NewRestyClient(15 * time.Second) }
