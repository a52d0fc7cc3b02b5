package sinks

import (
	"context"
	"time"
)

// DigestEvent is the payload fanned out to sinks after a digest is delivered.
type DigestEvent struct {
	RunID        string    `json:"run_id"`
	Topic        string    `json:"topic"`
	Subject      string    `json:"subject"`
	Markdown     string    `json:"markdown"`
	ArticleCount int       `json:"article_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Sink delivers digest events to one downstream destination.
type Sink interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt DigestEvent) error
}

// Logger is the minimal structured logger sinks depend on, kept local so the
// package stands alone.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

// nopLogger discards all entries.
type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

// ensureLogger guards against nil loggers in constructors.
func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}
