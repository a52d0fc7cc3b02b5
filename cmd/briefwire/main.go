// Command briefwire fetches recent news on a topic, curates it with an LLM,
// and emails the resulting brief. One invocation is one digest; scheduling
// belongs to cron or CI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briefwire/briefwire/internal/config"
	"github.com/briefwire/briefwire/internal/crawler"
	"github.com/briefwire/briefwire/internal/digest"
	"github.com/briefwire/briefwire/internal/logger"
	"github.com/briefwire/briefwire/internal/store"
	"github.com/briefwire/briefwire/pkg/llm"
	"github.com/briefwire/briefwire/pkg/mailer"
	"github.com/briefwire/briefwire/pkg/providers"
	"github.com/briefwire/briefwire/pkg/sinks"
)

const runTimeout = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "briefwire:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck // stdout sync fails on some platforms

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, runTimeout)
	defer timeoutCancel()

	opts, cleanup, err := buildPipelineOptions(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	pipeline, err := digest.New(opts)
	if err != nil {
		return err
	}

	d, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	log.InfoObj("digest run complete", "run_done", map[string]any{
		"run_id":   d.RunID,
		"articles": d.ArticleCount(),
		"dry_run":  cfg.DryRun,
	})
	return nil
}

// buildPipelineOptions wires the collaborators the configuration asks for.
func buildPipelineOptions(ctx context.Context, cfg config.Config, log logger.Logger) (digest.Options, func(), error) {
	cleanup := func() {}

	client := providers.DefaultHTTPClient()

	fetchers := []providers.Fetcher{
		providers.NewNewsAPIFetcher(client, cfg.NewsAPIKey),
	}
	if cfg.EventRegistryKey != "" {
		fetchers = append(fetchers, providers.NewEventRegistryFetcher(client, cfg.EventRegistryKey))
	}
	if len(cfg.RSSFeeds) > 0 {
		fetchers = append(fetchers, providers.NewRSSFetcher(cfg.RSSFeeds))
	}

	curator, err := llm.NewCurator(llm.Options{
		Provider:      cfg.LLM.Provider,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
		OllamaBaseURL: cfg.LLM.OllamaBaseURL,
		OllamaTimeout: cfg.LLM.OllamaTimeout,
	})
	if err != nil {
		return digest.Options{}, cleanup, err
	}

	opts := digest.Options{
		Config:   cfg,
		Fetchers: providers.NewFetcherRegistry(fetchers...),
		Curator:  curator,
		Log:      log,
	}

	if !cfg.DryRun {
		sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Security: cfg.Email.SMTPSecurity,
			Username: cfg.Email.SMTPUser,
			Password: cfg.Email.SMTPPass,
		})
		if err != nil {
			return digest.Options{}, cleanup, err
		}
		opts.Sender = sender
	}

	if cfg.EnrichArticles {
		opts.Enricher = crawler.NewScraper(client, log)
	}

	if cfg.StatePath != "" {
		st, err := store.Open(cfg.StatePath)
		if err != nil {
			return digest.Options{}, cleanup, err
		}
		cleanup = func() { st.Close() } //nolint:errcheck
		opts.Seen = st
	}

	if cfg.SinksFile != "" {
		reg, err := sinks.LoadRegistry(cfg.SinksFile)
		if err != nil {
			return digest.Options{}, cleanup, err
		}
		built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), reg.Enabled(), log)
		if err != nil {
			return digest.Options{}, cleanup, err
		}
		opts.Sinks = built
	}

	return opts, cleanup, nil
}
