package providers

import (
	"sort"
	"strings"

	"github.com/briefwire/briefwire/internal/domain"
)

// maxQueryLen is the longest keyword expression NewsAPI accepts per request.
const maxQueryLen = 500

// SplitQuery breaks a boolean OR expression into the fewest chunks that each
// fit within limit characters. Clauses are split only at top-level " OR "
// boundaries; quoted phrases and parenthesized groups stay intact. A single
// clause longer than the limit becomes its own chunk and is left for the
// provider to reject.
func SplitQuery(terms string, limit int) []string {
	terms = strings.TrimSpace(terms)
	if terms == "" {
		return nil
	}
	if limit <= 0 || len(terms) <= limit {
		return []string{terms}
	}

	clauses := splitTopLevelOR(terms)
	if len(clauses) == 0 {
		return []string{terms}
	}

	const sep = " OR "
	var chunks []string
	var cur strings.Builder

	for _, clause := range clauses {
		if cur.Len() == 0 {
			cur.WriteString(clause)
			continue
		}
		if cur.Len()+len(sep)+len(clause) <= limit {
			cur.WriteString(sep)
			cur.WriteString(clause)
			continue
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
		cur.WriteString(clause)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitTopLevelOR splits the expression at " OR " tokens that sit outside
// quotes and parentheses.
func splitTopLevelOR(terms string) []string {
	upper := strings.ToUpper(terms)

	var (
		clauses []string
		current strings.Builder
		inQuote bool
		depth   int
		i       int
	)

	for i < len(terms) {
		ch := terms[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case !inQuote && ch == '(':
			depth++
		case !inQuote && ch == ')':
			if depth > 0 {
				depth--
			}
		}

		if !inQuote && depth == 0 && strings.HasPrefix(upper[i:], " OR ") {
			if clause := strings.TrimSpace(current.String()); clause != "" {
				clauses = append(clauses, clause)
			}
			current.Reset()
			i += len(" OR ")
			continue
		}

		current.WriteByte(ch)
		i++
	}

	if clause := strings.TrimSpace(current.String()); clause != "" {
		clauses = append(clauses, clause)
	}
	return clauses
}

// KeywordsFromQuery flattens a boolean OR expression into bare keywords for
// providers that take keyword lists instead of query strings.
func KeywordsFromQuery(terms string) []string {
	clauses := splitTopLevelOR(terms)
	keywords := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		kw := strings.Trim(strings.TrimSpace(clause), `"()`)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil
	}
	return keywords
}

// DedupeAndRank removes duplicate URLs (first occurrence wins), orders the
// remainder newest-first with title as tiebreaker, and truncates to max.
func DedupeAndRank(articles []domain.Article, max int) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))

	for _, a := range articles {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			continue
		}
		if _, dup := seen[url]; dup {
			continue
		}
		seen[url] = struct{}{}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		return out[i].Title < out[j].Title
	})

	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
