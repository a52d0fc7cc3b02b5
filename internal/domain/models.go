package domain

import "time"

// Domain contains core models shared across the pipeline.

// Article is a normalized news article as returned by a provider.
type Article struct {
	ID          string
	ProviderID  string
	Title       string
	Description string
	Source      string
	URL         string
	ImageURL    string
	Keywords    []string
	PublishedAt time.Time
}

// Digest is the curated output of a single pipeline run.
type Digest struct {
	RunID       string
	Topic       string
	Subject     string
	Markdown    string
	Articles    []Article
	GeneratedAt time.Time
}

// ArticleCount returns the number of source articles behind the digest.
func (d Digest) ArticleCount() int { return len(d.Articles) }
