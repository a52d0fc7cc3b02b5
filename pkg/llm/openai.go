package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/briefwire/briefwire/internal/domain"
)

const openAIDefaultModel = openai.ChatModelGPT4oMini

// openAICurator curates digests through the OpenAI chat completions API.
type openAICurator struct {
	client *openai.Client
	model  openai.ChatModel
	opts   Options
}

// NewOpenAICurator builds a curator backed by OpenAI.
func NewOpenAICurator(opts Options) Curator {
	opts = opts.Sanitize()

	client := openai.NewClient(option.WithAPIKey(opts.APIKey))

	model := openai.ChatModel(opts.Model)
	if opts.Model == "" {
		model = openAIDefaultModel
	}

	return &openAICurator{
		client: &client,
		model:  model,
		opts:   opts,
	}
}

func (c *openAICurator) Provider() string { return ProviderOpenAI }

// Curate runs a single chat completion and returns the markdown body.
func (c *openAICurator) Curate(ctx context.Context, topic string, articles []domain.Article) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.model,
		MaxCompletionTokens: openai.Int(int64(c.opts.MaxTokens)),
		Temperature:         openai.Float(c.opts.Temperature),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(topic)),
			openai.UserMessage(buildUserPrompt(topic, articles)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("openai response is empty")
	}
	return content, nil
}
