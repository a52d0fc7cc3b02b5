package sinks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/briefwire/briefwire/pkg/httpclient"
)

// httpSink posts digest events to a generic HTTP webhook.
type httpSink struct {
	id      string
	typ     string
	url     string
	method  string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

// newHTTPSink creates an HTTP sink from the config entry.
func newHTTPSink(_ context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("sink %q missing http configuration", cfg.ID)
	}
	if cfg.HTTP.URL == "" {
		return nil, fmt.Errorf("sink %q http.url is empty", cfg.ID)
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.HTTP.Method))
	if method != "" && method != http.MethodPost {
		return nil, fmt.Errorf("sink %q http method %q is not supported (only POST)", cfg.ID, method)
	}

	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}

	return &httpSink{
		id:      cfg.ID,
		typ:     cfg.Type,
		url:     cfg.HTTP.URL,
		method:  http.MethodPost,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(timeout),
		log:     ensureLogger(log),
	}, nil
}

func (s *httpSink) ID() string   { return s.id }
func (s *httpSink) Type() string { return s.typ }

// Publish posts the digest event as JSON to the configured URL.
func (s *httpSink) Publish(ctx context.Context, evt DigestEvent) error {
	resp, err := s.client.PostJSON(ctx, s.url, evt, s.headers)
	if err != nil {
		s.log.ErrorObj("http sink send failed", "sink_http_error", map[string]any{
			"sink_id": s.id,
			"error":   err.Error(),
		})
		return fmt.Errorf("post digest event to %s: %w", s.url, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("http sink %s returned status %d", s.id, resp.StatusCode())
	}

	s.log.DebugObj("http sink delivered event", "sink_http_delivery", map[string]any{
		"sink_id": s.id,
		"status":  resp.StatusCode(),
	})
	return nil
}
