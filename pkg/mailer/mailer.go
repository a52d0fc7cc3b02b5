package mailer

import (
	"context"
	"strings"
)

// Sender abstracts email delivery for wiring and tests.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a fully prepared email with plain-text and HTML alternatives.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// ParseAddressList splits a comma, semicolon, or newline separated address
// string, trimming and de-duplicating while preserving order.
func ParseAddressList(raw string) []string {
	normalized := strings.NewReplacer(";", ",", "\n", ",").Replace(raw)

	seen := make(map[string]struct{})
	var out []string
	for _, token := range strings.Split(normalized, ",") {
		addr := strings.TrimSpace(token)
		if addr == "" {
			continue
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
