package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/briefwire/briefwire/pkg/mailer"
)

const (
	defaultTopic    = "U.S. Treasury"
	defaultQuery    = `"United States Treasury" OR "U.S. Treasury" OR "Treasury Department"`
	defaultLanguage = "en"
)

// Config is the full runtime configuration, loaded from environment
// variables (with optional .env bootstrap).
type Config struct {
	Topic              string
	Query              string
	Language           string
	PrimaryProvider    string
	Sources            []string
	MaxArticles        int
	LookbackDays       int
	VerifyEmptyResults bool
	DryRun             bool
	Debug              bool

	NewsAPIKey       string
	EventRegistryKey string
	RSSFeeds         []string

	LLM   LLMConfig
	Email EmailConfig

	EnrichArticles bool
	EnrichDelayMS  int
	StatePath      string
	SeenTTLDays    int
	SinksFile      string

	LogLevel  string
	LogFormat string
}

// LLMConfig tunes the curation backend.
type LLMConfig struct {
	Provider      string
	APIKey        string
	Model         string
	MaxTokens     int
	Temperature   float64
	OllamaBaseURL string
	OllamaTimeout time.Duration
}

// EmailConfig holds delivery settings.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPSecurity string
	SMTPUser     string
	SMTPPass     string
	From         string
	To           []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load() // missing .env is fine

	v := viper.New()
	v.AutomaticEnv()

	cfg := Config{
		Topic:              str(v, "TOPIC", defaultTopic),
		Query:              str(v, "QUERY", defaultQuery),
		Language:           str(v, "LANGUAGE", defaultLanguage),
		PrimaryProvider:    strings.ToLower(str(v, "PRIMARY_PROVIDER", "")),
		Sources:            splitList(firstNonEmpty(str(v, "SOURCES", ""), str(v, "ALLOW_DOMAINS", ""))),
		MaxArticles:        intVal(v, "MAX_ARTICLES", 25),
		LookbackDays:       intVal(v, "NEWS_LOOKBACK_DAYS", 1),
		VerifyEmptyResults: truthy(str(v, "VERIFY_EMPTY_RESULTS", "")),
		DryRun:             truthy(str(v, "DRY_RUN", "")),
		Debug:              truthy(str(v, "DEBUG", "")),

		NewsAPIKey:       str(v, "NEWS_API_KEY", ""),
		EventRegistryKey: firstNonEmpty(str(v, "NEWSAPI_AI_KEY", ""), str(v, "NEWS_API_KEY", "")),
		RSSFeeds:         splitList(str(v, "RSS_FEEDS", "")),

		LLM: LLMConfig{
			Provider:      strings.ToLower(str(v, "LLM_PROVIDER", "ollama")),
			APIKey:        str(v, "LLM_API_KEY", ""),
			Model:         str(v, "LLM_MODEL", ""),
			MaxTokens:     intVal(v, "LLM_MAX_TOKENS", 1800),
			Temperature:   floatVal(v, "LLM_TEMPERATURE", 0.4),
			OllamaBaseURL: strings.TrimRight(str(v, "OLLAMA_BASE_URL", "http://localhost:11434"), "/"),
			OllamaTimeout: time.Duration(intVal(v, "OLLAMA_TIMEOUT_SECONDS", 120)) * time.Second,
		},

		Email: EmailConfig{
			SMTPHost:     str(v, "SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     intVal(v, "SMTP_PORT", 0),
			SMTPSecurity: strings.ToLower(str(v, "SMTP_SECURITY", "starttls")),
			SMTPUser:     str(v, "SMTP_USER", ""),
			SMTPPass:     str(v, "SMTP_PASS", ""),
			To:           mailer.ParseAddressList(str(v, "TO_EMAILS", "")),
		},

		EnrichArticles: truthy(str(v, "ENRICH_ARTICLES", "")),
		EnrichDelayMS:  intVal(v, "ENRICH_DELAY_MS", 200),
		StatePath:      str(v, "STATE_PATH", ""),
		SeenTTLDays:    intVal(v, "SEEN_TTL_DAYS", 30),
		SinksFile:      str(v, "SINKS_FILE", ""),

		LogLevel:  str(v, "LOG_LEVEL", "info"),
		LogFormat: str(v, "LOG_FORMAT", "console"),
	}

	// The ollama model historically has its own variable.
	if cfg.LLM.Provider == "ollama" && cfg.LLM.Model == "" {
		cfg.LLM.Model = str(v, "OLLAMA_MODEL", "llama3.2:3b")
	}

	cfg.Email.From = firstNonEmpty(str(v, "FROM_EMAIL", ""), cfg.Email.SMTPUser)

	if cfg.Debug && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings. SMTP credentials and recipients are only
// required when the run will actually send mail.
func (c Config) Validate() error {
	if c.NewsAPIKey == "" {
		return requiredErr("NEWS_API_KEY")
	}
	if strings.TrimSpace(c.Query) == "" {
		return requiredErr("QUERY")
	}

	if !c.DryRun {
		if c.Email.SMTPUser == "" {
			return requiredErr("SMTP_USER")
		}
		if c.Email.SMTPPass == "" {
			return requiredErr("SMTP_PASS")
		}
		if len(c.Email.To) == 0 {
			return requiredErr("TO_EMAILS")
		}
		switch c.Email.SMTPSecurity {
		case mailer.SecurityStartTLS, mailer.SecuritySSL, mailer.SecurityNone:
		default:
			return fmt.Errorf("unsupported SMTP_SECURITY %q (supported: starttls, ssl, none)", c.Email.SMTPSecurity)
		}
	}

	if c.MaxArticles <= 0 {
		return fmt.Errorf("MAX_ARTICLES must be positive")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("NEWS_LOOKBACK_DAYS must be positive")
	}
	return nil
}

// Lookback returns the article window as a duration.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func requiredErr(name string) error {
	return fmt.Errorf("missing required environment variable: %s", name)
}

// str reads a trimmed string, treating blank values as unset.
func str(v *viper.Viper, key, def string) string {
	val := strings.TrimSpace(v.GetString(key))
	if val == "" {
		return def
	}
	return val
}

// intVal reads an integer, treating blank values as unset.
func intVal(v *viper.Viper, key string, def int) int {
	if strings.TrimSpace(v.GetString(key)) == "" {
		return def
	}
	return v.GetInt(key)
}

// floatVal reads a float, treating blank values as unset.
func floatVal(v *viper.Viper, key string, def float64) float64 {
	if strings.TrimSpace(v.GetString(key)) == "" {
		return def
	}
	return v.GetFloat64(key)
}

// truthy reports whether the raw value is an affirmative toggle.
func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// splitList splits a comma-separated value into trimmed entries.
func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
