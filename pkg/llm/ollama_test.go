package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/pkg/httpclient"
)

func testArticles() []domain.Article {
	return []domain.Article{
		{
			Title:       "Treasury announces buyback schedule",
			Description: "The department laid out a new schedule.",
			Source:      "Bloomberg",
			URL:         "https://example.com/buyback",
			PublishedAt: time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC),
		},
		{
			Title:       "Yields slide after auction",
			Description: "Strong demand at the latest auction.",
			Source:      "Reuters",
			URL:         "https://example.com/yields",
			PublishedAt: time.Date(2026, 8, 27, 7, 30, 0, 0, time.UTC),
		},
	}
}

func TestOllamaCurate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req.Model)
		assert.False(t, req.Stream)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Contains(t, req.Messages[1].Content, "[1] Treasury announces buyback schedule")
		assert.Contains(t, req.Messages[1].Content, "[2] Yields slide after auction")
		assert.Equal(t, 1800, req.Options.NumPredict)
		assert.InDelta(t, 0.4, req.Options.Temperature, 0.001)

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "## Themes\n- buybacks"},
		})
	}))
	defer srv.Close()

	c := NewOllamaCurator(httpclient.NewRestyClient(5*time.Second), Options{OllamaBaseURL: srv.URL})
	out, err := c.Curate(context.Background(), "U.S. Treasury", testArticles())
	require.NoError(t, err)
	assert.Equal(t, "## Themes\n- buybacks", out)
}

func TestOllamaCurateMissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaChatResponse{})
	}))
	defer srv.Close()

	c := NewOllamaCurator(httpclient.NewRestyClient(5*time.Second), Options{OllamaBaseURL: srv.URL})
	_, err := c.Curate(context.Background(), "U.S. Treasury", testArticles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing message content")
}

func TestOllamaCurateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaCurator(httpclient.NewRestyClient(5*time.Second), Options{OllamaBaseURL: srv.URL})
	_, err := c.Curate(context.Background(), "U.S. Treasury", testArticles())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestNewCuratorProviderSelection(t *testing.T) {
	c, err := NewCurator(Options{})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, c.Provider())

	c, err = NewCurator(Options{Provider: "openai", APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, c.Provider())

	c, err = NewCurator(Options{Provider: "anthropic", APIKey: "sk-ant-test"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, c.Provider())

	_, err = NewCurator(Options{Provider: "openai"})
	require.Error(t, err)

	_, err = NewCurator(Options{Provider: "bard"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}
