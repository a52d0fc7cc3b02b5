package digest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/briefwire/briefwire/internal/config"
	"github.com/briefwire/briefwire/internal/crawler"
	"github.com/briefwire/briefwire/internal/domain"
	"github.com/briefwire/briefwire/internal/logger"
	"github.com/briefwire/briefwire/pkg/llm"
	"github.com/briefwire/briefwire/pkg/mailer"
	"github.com/briefwire/briefwire/pkg/providers"
	"github.com/briefwire/briefwire/pkg/sinks"
)

// verifyQuery is a deliberately broad query used to distinguish a quiet news
// day from a broken key when the real query comes back empty.
const verifyQuery = `"Apple" OR "Tesla" OR "Microsoft"`

// Enricher backfills article metadata before curation.
type Enricher interface {
	Enrich(ctx context.Context, opts crawler.Options, articles []domain.Article) []domain.Article
}

// SeenStore persists cross-run article state.
type SeenStore interface {
	FilterUnseen(articles []domain.Article) ([]domain.Article, error)
	MarkSeen(articles []domain.Article, at time.Time) error
	PruneSeen(cutoff time.Time) (int, error)
	ArchiveDigest(d domain.Digest) error
}

// Options wires the pipeline's collaborators. Fetchers and Curator are
// required; everything else is optional.
type Options struct {
	Config   config.Config
	Fetchers providers.FetcherRegistry
	Curator  llm.Curator
	Sender   mailer.Sender
	Enricher Enricher
	Seen     SeenStore
	Sinks    []sinks.Sink
	Log      logger.Logger

	// Out receives the digest body on dry runs. Defaults to stdout.
	Out io.Writer
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Pipeline runs the fetch, curate, and deliver sequence once per invocation.
type Pipeline struct {
	cfg      config.Config
	fetchers providers.FetcherRegistry
	curator  llm.Curator
	sender   mailer.Sender
	enricher Enricher
	seen     SeenStore
	sinks    []sinks.Sink
	log      logger.Logger
	out      io.Writer
	now      func() time.Time
}

// New validates the options and builds a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Fetchers == nil || len(opts.Fetchers.All()) == 0 {
		return nil, fmt.Errorf("pipeline requires at least one fetcher")
	}
	if opts.Curator == nil {
		return nil, fmt.Errorf("pipeline requires a curator")
	}
	if !opts.Config.DryRun && opts.Sender == nil {
		return nil, fmt.Errorf("pipeline requires a sender unless running dry")
	}
	if opts.Config.PrimaryProvider != "" {
		if _, err := opts.Fetchers.FetcherFor(opts.Config.PrimaryProvider); err != nil {
			return nil, fmt.Errorf("primary provider: %w", err)
		}
	}
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Pipeline{
		cfg:      opts.Config,
		fetchers: opts.Fetchers,
		curator:  opts.Curator,
		sender:   opts.Sender,
		enricher: opts.Enricher,
		seen:     opts.Seen,
		sinks:    opts.Sinks,
		log:      opts.Log,
		out:      opts.Out,
		now:      opts.Now,
	}, nil
}

// Run executes one digest cycle and returns the generated digest.
func (p *Pipeline) Run(ctx context.Context) (domain.Digest, error) {
	runID := uuid.NewString()
	now := p.now().UTC()

	query := providers.Query{
		Topic:       p.cfg.Topic,
		Terms:       p.cfg.Query,
		Domains:     p.cfg.Sources,
		Language:    p.cfg.Language,
		Lookback:    p.cfg.Lookback(),
		MaxArticles: p.cfg.MaxArticles,
	}

	articles, err := p.fetch(ctx, query)
	if err != nil {
		return domain.Digest{}, err
	}

	if p.seen != nil && len(articles) > 0 {
		unseen, err := p.seen.FilterUnseen(articles)
		if err != nil {
			return domain.Digest{}, err
		}
		if dropped := len(articles) - len(unseen); dropped > 0 {
			p.log.InfoObj("skipping previously digested articles", "seen_filter", map[string]any{
				"run_id":  runID,
				"dropped": dropped,
			})
		}
		articles = unseen
	}

	if p.enricher != nil && len(articles) > 0 {
		articles = p.enricher.Enrich(ctx, crawler.Options{
			Delay: time.Duration(p.cfg.EnrichDelayMS) * time.Millisecond,
		}, articles)
	}

	markdown, err := p.curate(ctx, articles)
	if err != nil {
		return domain.Digest{}, err
	}

	digest := domain.Digest{
		RunID:       runID,
		Topic:       p.cfg.Topic,
		Subject:     fmt.Sprintf("%s News Brief – %s", p.cfg.Topic, now.Format("2006-01-02")),
		Markdown:    markdown,
		Articles:    articles,
		GeneratedAt: now,
	}

	if p.cfg.DryRun {
		fmt.Fprintln(p.out, markdown)
		p.archive(digest)
		return digest, nil
	}

	if err := p.deliver(ctx, digest); err != nil {
		return domain.Digest{}, err
	}

	p.recordSent(digest, now)
	p.fanout(ctx, digest)

	return digest, nil
}

// fetch tries each registered fetcher in order and returns the first
// non-empty result. An empty result from every fetcher is not an error; a
// run where every fetcher failed is.
func (p *Pipeline) fetch(ctx context.Context, query providers.Query) ([]domain.Article, error) {
	var (
		succeeded int
		firstErr  error
	)

	for _, f := range p.orderedFetchers() {
		articles, err := f.Fetch(ctx, query)
		if err != nil {
			p.log.WarnObj("provider fetch failed", "fetch_error", map[string]any{
				"provider": f.ID(),
				"error":    err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("provider %s: %w", f.ID(), err)
			}
			continue
		}
		succeeded++

		if len(articles) > 0 {
			p.log.InfoObj("articles fetched", "fetch_done", map[string]any{
				"provider": f.ID(),
				"count":    len(articles),
			})
			return articles, nil
		}

		p.log.InfoObj("provider returned no articles", "fetch_empty", map[string]any{
			"provider": f.ID(),
		})
		if p.cfg.VerifyEmptyResults {
			p.verifyEmpty(ctx, f)
		}
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("all providers failed: %w", firstErr)
	}
	return nil, nil
}

// orderedFetchers returns the fetchers in fallback order, moving the
// configured primary provider to the front. The provider was resolved in New,
// so a lookup failure here only means registration order stands.
func (p *Pipeline) orderedFetchers() []providers.Fetcher {
	all := p.fetchers.All()
	if p.cfg.PrimaryProvider == "" {
		return all
	}

	primary, err := p.fetchers.FetcherFor(p.cfg.PrimaryProvider)
	if err != nil {
		return all
	}

	out := make([]providers.Fetcher, 0, len(all))
	out = append(out, primary)
	for _, f := range all {
		if f.ID() != primary.ID() {
			out = append(out, f)
		}
	}
	return out
}

// verifyEmpty runs a broad sanity query against the fetcher so the logs can
// tell a quiet news day apart from a broken key or malformed query.
func (p *Pipeline) verifyEmpty(ctx context.Context, f providers.Fetcher) {
	probe := providers.Query{
		Topic:       p.cfg.Topic,
		Terms:       verifyQuery,
		Language:    p.cfg.Language,
		Lookback:    7 * 24 * time.Hour,
		MaxArticles: 3,
	}

	articles, err := f.Fetch(ctx, probe)
	switch {
	case err != nil:
		p.log.WarnObj("empty-result verification failed", "verify_error", map[string]any{
			"provider": f.ID(),
			"error":    err.Error(),
		})
	case len(articles) == 0:
		p.log.WarnObj("broad probe also returned nothing; check the api key", "verify_suspicious", map[string]any{
			"provider": f.ID(),
		})
	default:
		p.log.InfoObj("broad probe returned results; query genuinely quiet", "verify_ok", map[string]any{
			"provider": f.ID(),
			"count":    len(articles),
		})
	}
}

// curate produces the digest markdown, short-circuiting on empty input.
func (p *Pipeline) curate(ctx context.Context, articles []domain.Article) (string, error) {
	if len(articles) == 0 {
		return fmt.Sprintf("No significant %s news found in the last %s.", p.cfg.Topic, windowText(p.cfg.LookbackDays)), nil
	}

	markdown, err := p.curator.Curate(ctx, p.cfg.Topic, articles)
	if err != nil {
		return "", fmt.Errorf("curate digest: %w", err)
	}
	return markdown, nil
}

// deliver renders and sends the digest email.
func (p *Pipeline) deliver(ctx context.Context, digest domain.Digest) error {
	html, err := mailer.RenderMarkdown(digest.Markdown)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		From:     p.cfg.Email.From,
		To:       p.cfg.Email.To,
		Subject:  digest.Subject,
		TextBody: digest.Markdown,
		HTMLBody: html,
	}

	if err := p.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send digest email: %w", err)
	}

	p.log.InfoObj("digest email sent", "email_sent", map[string]any{
		"run_id":     digest.RunID,
		"recipients": len(msg.To),
		"articles":   digest.ArticleCount(),
	})
	return nil
}

// recordSent marks articles seen, prunes stale entries, and archives the digest.
func (p *Pipeline) recordSent(digest domain.Digest, now time.Time) {
	if p.seen == nil {
		return
	}

	if err := p.seen.MarkSeen(digest.Articles, now); err != nil {
		p.log.WarnObj("failed to mark articles seen", "seen_mark_error", map[string]any{
			"run_id": digest.RunID,
			"error":  err.Error(),
		})
	}

	cutoff := now.Add(-time.Duration(p.cfg.SeenTTLDays) * 24 * time.Hour)
	if removed, err := p.seen.PruneSeen(cutoff); err != nil {
		p.log.WarnObj("failed to prune seen articles", "seen_prune_error", map[string]any{
			"run_id": digest.RunID,
			"error":  err.Error(),
		})
	} else if removed > 0 {
		p.log.DebugObj("pruned seen articles", "seen_pruned", map[string]any{
			"run_id":  digest.RunID,
			"removed": removed,
		})
	}

	p.archive(digest)
}

func (p *Pipeline) archive(digest domain.Digest) {
	if p.seen == nil {
		return
	}
	if err := p.seen.ArchiveDigest(digest); err != nil {
		p.log.WarnObj("failed to archive digest", "archive_error", map[string]any{
			"run_id": digest.RunID,
			"error":  err.Error(),
		})
	}
}

// fanout publishes the digest event to every configured sink. Sink failures
// are logged, not fatal; the email already went out.
func (p *Pipeline) fanout(ctx context.Context, digest domain.Digest) {
	if len(p.sinks) == 0 {
		return
	}

	evt := sinks.DigestEvent{
		RunID:        digest.RunID,
		Topic:        digest.Topic,
		Subject:      digest.Subject,
		Markdown:     digest.Markdown,
		ArticleCount: digest.ArticleCount(),
		GeneratedAt:  digest.GeneratedAt,
	}

	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			p.log.ErrorObj("sink publish failed", "sink_error", map[string]any{
				"run_id":  digest.RunID,
				"sink_id": sink.ID(),
				"error":   err.Error(),
			})
			continue
		}
		p.log.DebugObj("sink publish succeeded", "sink_published", map[string]any{
			"run_id":  digest.RunID,
			"sink_id": sink.ID(),
		})
	}
}

// windowText renders the lookback window for the empty-digest message.
func windowText(days int) string {
	if days == 1 {
		return "24 hours"
	}
	return fmt.Sprintf("%d days", days)
}
