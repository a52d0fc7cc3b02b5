package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/briefwire/briefwire/internal/domain"
)

// Supported providers.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options selects and tunes the curation backend.
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64

	// Ollama-specific settings.
	OllamaBaseURL string
	OllamaTimeout time.Duration
}

// Sanitize normalizes the options and applies defaults.
func (o Options) Sanitize() Options {
	o.Provider = strings.ToLower(strings.TrimSpace(o.Provider))
	if o.Provider == "" {
		o.Provider = ProviderOllama
	}
	o.APIKey = strings.TrimSpace(o.APIKey)
	o.Model = strings.TrimSpace(o.Model)
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1800
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.4
	}
	o.OllamaBaseURL = strings.TrimRight(strings.TrimSpace(o.OllamaBaseURL), "/")
	if o.OllamaBaseURL == "" {
		o.OllamaBaseURL = "http://localhost:11434"
	}
	if o.OllamaTimeout <= 0 {
		o.OllamaTimeout = 120 * time.Second
	}
	return o
}

// Curator condenses a batch of articles into a digest body.
type Curator interface {
	Provider() string
	Curate(ctx context.Context, topic string, articles []domain.Article) (string, error)
}

// NewCurator builds the curator for the configured provider.
func NewCurator(opts Options) (Curator, error) {
	opts = opts.Sanitize()

	switch opts.Provider {
	case ProviderOllama:
		return NewOllamaCurator(nil, opts), nil
	case ProviderOpenAI:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return NewOpenAICurator(opts), nil
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		return NewAnthropicCurator(opts), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q (supported: ollama, openai, anthropic)", opts.Provider)
	}
}
