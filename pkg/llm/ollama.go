package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/pkg/httpclient"
)

const ollamaDefaultModel = "llama3.2:3b"

// ollamaCurator talks to a local Ollama server over its chat API.
type ollamaCurator struct {
	client  httpclient.Client
	baseURL string
	model   string
	opts    Options
}

// NewOllamaCurator builds a curator backed by an Ollama chat endpoint.
func NewOllamaCurator(client httpclient.Client, opts Options) Curator {
	opts = opts.Sanitize()
	if client == nil {
		client = httpclient.NewRestyClient(opts.OllamaTimeout)
	}

	model := opts.Model
	if model == "" {
		model = ollamaDefaultModel
	}

	return &ollamaCurator{
		client:  client,
		baseURL: opts.OllamaBaseURL,
		model:   model,
		opts:    opts,
	}
}

func (c *ollamaCurator) Provider() string { return ProviderOllama }

// Curate sends system and user prompts through /api/chat and returns the
// model's markdown response.
func (c *ollamaCurator) Curate(ctx context.Context, topic string, articles []domain.Article) (string, error) {
	payload := ollamaChatRequest{
		Model:  c.model,
		Stream: false,
		Messages: []ollamaMessage{
			{Role: "system", Content: buildSystemPrompt(topic)},
			{Role: "user", Content: buildUserPrompt(topic, articles)},
		},
		Options: ollamaOptions{
			Temperature: c.opts.Temperature,
			NumPredict:  c.opts.MaxTokens,
		},
	}

	resp, err := c.client.PostJSON(ctx, c.baseURL+"/api/chat", payload, nil)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode())
	}

	var decoded ollamaChatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	content := strings.TrimSpace(decoded.Message.Content)
	if content == "" {
		return "", fmt.Errorf("ollama response missing message content")
	}
	return content, nil
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}
