package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRegistryFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/article/getArticles", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req eventRegistryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getArticles", req.Action)
		assert.Equal(t, "or", req.KeywordOper)
		assert.Equal(t, "eng", req.Lang)
		assert.Equal(t, []string{"United States Treasury", "Treasury Department"}, req.Keyword)
		assert.Equal(t, "er-key", req.APIKey)

		json.NewEncoder(w).Encode(map[string]any{
			"articles": map[string]any{
				"results": []map[string]any{
					{
						"title":    "Yields slide after auction",
						"body":     "A long body that serves as the description.",
						"url":      "https://example.com/yields",
						"dateTime": "2026-08-27T07:30:00Z",
						"source":   map[string]any{"title": "Example Wire"},
					},
				},
			},
		})
	}))
	defer srv.Close()

	f := NewEventRegistryFetcherWithBaseURL(DefaultHTTPClient(), "er-key", srv.URL)
	articles, err := f.Fetch(context.Background(), Query{
		Terms:    `"United States Treasury" OR "Treasury Department"`,
		Lookback: 24 * time.Hour,
	})
	require.NoError(t, err)

	require.Len(t, articles, 1)
	a := articles[0]
	assert.Equal(t, ProviderEventRegistry, a.ProviderID)
	assert.Equal(t, "Yields slide after auction", a.Title)
	assert.Equal(t, "Example Wire", a.Source)
	assert.Equal(t, "A long body that serves as the description.", a.Description)
}

func TestEventRegistryFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid api key"})
	}))
	defer srv.Close()

	f := NewEventRegistryFetcherWithBaseURL(DefaultHTTPClient(), "bad", srv.URL)
	_, err := f.Fetch(context.Background(), Query{Terms: `"x"`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestEventRegistryLang(t *testing.T) {
	assert.Equal(t, "eng", eventRegistryLang("en"))
	assert.Equal(t, "deu", eventRegistryLang("de"))
	assert.Equal(t, "ita", eventRegistryLang("ita"))
}

func TestTruncateDescriptionKeepsRuneBoundary(t *testing.T) {
	// A two-byte rune straddling the cut must be dropped whole.
	s := strings.Repeat("a", 499) + "é und mehr"
	out := truncateDescription(s, 500)

	assert.Equal(t, strings.Repeat("a", 499), out)
	assert.True(t, utf8.ValidString(out))

	assert.Equal(t, "short", truncateDescription("short", 500))
}
