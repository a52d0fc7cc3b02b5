package sinks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() DigestEvent {
	return DigestEvent{
		RunID:        "run-123",
		Topic:        "U.S. Treasury",
		Subject:      "U.S. Treasury News Brief – 2026-08-27",
		Markdown:     "## Highlights",
		ArticleCount: 4,
		GeneratedAt:  time.Date(2026, 8, 27, 6, 0, 0, 0, time.UTC),
	}
}

func httpSinkConfig(url string) SinkConfig {
	return SinkConfig{
		ID:   "ops-webhook",
		Type: TypeHTTP,
		HTTP: &HTTPSinkConfig{
			URL:     url,
			Headers: map[string]string{"X-Digest-Token": "secret"},
		},
	}
}

func TestHTTPSinkPublish(t *testing.T) {
	var got DigestEvent
	var header string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		header = r.Header.Get("X-Digest-Token")

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), httpSinkConfig(srv.URL), nil)
	require.NoError(t, err)

	require.NoError(t, sink.Publish(context.Background(), testEvent()))
	assert.Equal(t, "secret", header)
	assert.Equal(t, "run-123", got.RunID)
	assert.Equal(t, 4, got.ArticleCount)
}

func TestHTTPSinkPublishNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), httpSinkConfig(srv.URL), nil)
	require.NoError(t, err)

	err = sink.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestNewHTTPSinkRejectsNonPost(t *testing.T) {
	cfg := httpSinkConfig("https://hooks.example.com")
	cfg.HTTP.Method = "GET"

	_, err := newHTTPSink(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only POST")
}

func TestBuildAllUsesDefaultRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	built, err := BuildAll(context.Background(), DefaultRegistry(), []SinkConfig{httpSinkConfig(srv.URL)}, nil)
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, "ops-webhook", built[0].ID())
}

func TestBuildAllUnknownType(t *testing.T) {
	cfg := SinkConfig{ID: "weird", Type: "carrier-pigeon"}

	_, err := BuildAll(context.Background(), DefaultRegistry(), []SinkConfig{cfg}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no sink registered for type "carrier-pigeon"`)
}
