package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/briefwire/briefwire/internal/domain"
)

const anthropicDefaultModel = anthropic.ModelClaude3_5HaikuLatest

// anthropicCurator curates digests through the Anthropic messages API.
type anthropicCurator struct {
	client *anthropic.Client
	model  anthropic.Model
	opts   Options
}

// NewAnthropicCurator builds a curator backed by Anthropic.
func NewAnthropicCurator(opts Options) Curator {
	opts = opts.Sanitize()

	client := anthropic.NewClient(option.WithAPIKey(opts.APIKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropicDefaultModel
	}

	return &anthropicCurator{
		client: &client,
		model:  model,
		opts:   opts,
	}
}

func (c *anthropicCurator) Provider() string { return ProviderAnthropic }

// Curate runs a single messages call and returns the markdown body.
func (c *anthropicCurator) Curate(ctx context.Context, topic string, articles []domain.Article) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(c.opts.MaxTokens),
		Temperature: anthropic.Float(c.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: buildSystemPrompt(topic)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(topic, articles))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages call: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	content := strings.TrimSpace(resp.Content[0].Text)
	if content == "" {
		return "", fmt.Errorf("anthropic response is empty")
	}
	return content, nil
}
