package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so tests only see their own
// values. Blank is treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"TOPIC", "QUERY", "LANGUAGE", "PRIMARY_PROVIDER", "SOURCES", "ALLOW_DOMAINS",
		"MAX_ARTICLES", "NEWS_LOOKBACK_DAYS", "VERIFY_EMPTY_RESULTS",
		"DRY_RUN", "DEBUG", "NEWS_API_KEY", "NEWSAPI_AI_KEY", "RSS_FEEDS",
		"LLM_PROVIDER", "LLM_API_KEY", "LLM_MODEL", "LLM_MAX_TOKENS",
		"LLM_TEMPERATURE", "OLLAMA_BASE_URL", "OLLAMA_MODEL",
		"OLLAMA_TIMEOUT_SECONDS", "SMTP_HOST", "SMTP_PORT", "SMTP_SECURITY",
		"SMTP_USER", "SMTP_PASS", "FROM_EMAIL", "TO_EMAILS",
		"ENRICH_ARTICLES", "ENRICH_DELAY_MS", "STATE_PATH", "SEEN_TTL_DAYS",
		"SINKS_FILE", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "U.S. Treasury", cfg.Topic)
	assert.Contains(t, cfg.Query, `"United States Treasury"`)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 25, cfg.MaxArticles)
	assert.Equal(t, 1, cfg.LookbackDays)
	assert.Equal(t, 24*time.Hour, cfg.Lookback())
	assert.True(t, cfg.DryRun)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3.2:3b", cfg.LLM.Model)
	assert.Equal(t, 1800, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.4, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaBaseURL)
	assert.Equal(t, 120*time.Second, cfg.LLM.OllamaTimeout)

	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTPHost)
	assert.Equal(t, "starttls", cfg.Email.SMTPSecurity)

	assert.Equal(t, 30, cfg.SeenTTLDays)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadRequiresNewsAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("DRY_RUN", "1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWS_API_KEY")
}

func TestLoadRequiresSMTPWhenSending(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_USER")

	t.Setenv("SMTP_USER", "digest@example.com")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_PASS")

	t.Setenv("SMTP_PASS", "app-pass")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TO_EMAILS")

	t.Setenv("TO_EMAILS", "a@example.com; b@example.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
}

func TestLoadRejectsUnknownSMTPSecurity(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("SMTP_USER", "digest@example.com")
	t.Setenv("SMTP_PASS", "app-pass")
	t.Setenv("TO_EMAILS", "a@example.com")
	t.Setenv("SMTP_SECURITY", "tlsv9")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP_SECURITY")
}

func TestLoadSourcesFallsBackToAllowDomains(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("ALLOW_DOMAINS", "reuters.com, bloomberg.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"reuters.com", "bloomberg.com"}, cfg.Sources)

	t.Setenv("SOURCES", "ft.com")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ft.com"}, cfg.Sources)
}

func TestLoadPrimaryProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("PRIMARY_PROVIDER", "RSS")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "rss", cfg.PrimaryProvider)
}

func TestLoadEventRegistryKeyFallsBackToNewsAPIKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "key-123", cfg.EventRegistryKey)

	t.Setenv("NEWSAPI_AI_KEY", "er-456")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "er-456", cfg.EventRegistryKey)
}

func TestLoadDebugPromotesLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("LOG_LEVEL", "warn")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("DRY_RUN", "1")
	t.Setenv("MAX_ARTICLES", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ARTICLES")

	t.Setenv("MAX_ARTICLES", "10")
	t.Setenv("NEWS_LOOKBACK_DAYS", "-1")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWS_LOOKBACK_DAYS")
}

func TestTruthy(t *testing.T) {
	for _, raw := range []string{"1", "true", "YES", " on ", "y"} {
		assert.True(t, truthy(raw), raw)
	}
	for _, raw := range []string{"", "0", "false", "off", "no"} {
		assert.False(t, truthy(raw), raw)
	}
}

func TestLoadFromEmailDefaultsToSMTPUser(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEWS_API_KEY", "key-123")
	t.Setenv("SMTP_USER", "digest@example.com")
	t.Setenv("SMTP_PASS", "app-pass")
	t.Setenv("TO_EMAILS", "a@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "digest@example.com", cfg.Email.From)

	t.Setenv("FROM_EMAIL", "noreply@example.com")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", cfg.Email.From)
}
