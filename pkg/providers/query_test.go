package providers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefwire/briefwire/internal/domain"
)

func TestSplitQueryShortPassesThrough(t *testing.T) {
	q := `"U.S. Treasury" OR "Treasury Department"`
	chunks := SplitQuery(q, maxQueryLen)
	require.Len(t, chunks, 1)
	assert.Equal(t, q, chunks[0])
}

func TestSplitQueryBreaksAtTopLevelOR(t *testing.T) {
	var clauses []string
	for i := 0; i < 40; i++ {
		clauses = append(clauses, `"some fairly long keyword phrase number `+strings.Repeat("x", i)+`"`)
	}
	q := strings.Join(clauses, " OR ")
	require.Greater(t, len(q), 500)

	chunks := SplitQuery(q, 500)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 500)
		assert.False(t, strings.HasPrefix(chunk, "OR "))
		assert.False(t, strings.HasSuffix(chunk, " OR"))
	}

	// Rejoining the chunks must preserve every clause.
	rejoined := strings.Join(chunks, " OR ")
	assert.Equal(t, q, rejoined)
}

func TestSplitQueryKeepsQuotedORIntact(t *testing.T) {
	q := `"War OR Peace" OR "Treasury Department"`
	chunks := SplitQuery(q, 30)
	require.Len(t, chunks, 2)
	assert.Equal(t, `"War OR Peace"`, chunks[0])
	assert.Equal(t, `"Treasury Department"`, chunks[1])
}

func TestSplitQueryKeepsParenGroupsIntact(t *testing.T) {
	q := `(alpha OR beta) OR "gamma delta"`
	chunks := SplitQuery(q, 20)
	require.Len(t, chunks, 2)
	assert.Equal(t, `(alpha OR beta)`, chunks[0])
	assert.Equal(t, `"gamma delta"`, chunks[1])
}

func TestSplitQueryOversizedClauseStandsAlone(t *testing.T) {
	big := `"` + strings.Repeat("a", 600) + `"`
	q := `"small"` + " OR " + big
	chunks := SplitQuery(q, 500)
	require.Len(t, chunks, 2)
	assert.Equal(t, `"small"`, chunks[0])
	assert.Equal(t, big, chunks[1])
}

func TestSplitQueryEmpty(t *testing.T) {
	assert.Nil(t, SplitQuery("   ", 500))
}

func TestKeywordsFromQuery(t *testing.T) {
	kws := KeywordsFromQuery(`"United States Treasury" OR "U.S. Treasury" OR IRS`)
	assert.Equal(t, []string{"United States Treasury", "U.S. Treasury", "IRS"}, kws)
}

func TestDedupeAndRank(t *testing.T) {
	base := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{Title: "oldest", URL: "https://example.com/a", PublishedAt: base.Add(-2 * time.Hour)},
		{Title: "dup", URL: "https://example.com/b", PublishedAt: base},
		{Title: "dup again", URL: "https://example.com/b", PublishedAt: base.Add(time.Hour)},
		{Title: "no url", URL: ""},
		{Title: "newest", URL: "https://example.com/c", PublishedAt: base.Add(time.Hour)},
	}

	out := DedupeAndRank(articles, 0)
	require.Len(t, out, 3)
	assert.Equal(t, "newest", out[0].Title)
	assert.Equal(t, "dup", out[1].Title)
	assert.Equal(t, "oldest", out[2].Title)
}

func TestDedupeAndRankTiebreakAndTruncate(t *testing.T) {
	at := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	articles := []domain.Article{
		{Title: "bravo", URL: "https://example.com/1", PublishedAt: at},
		{Title: "alpha", URL: "https://example.com/2", PublishedAt: at},
		{Title: "charlie", URL: "https://example.com/3", PublishedAt: at},
	}

	out := DedupeAndRank(articles, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].Title)
	assert.Equal(t, "bravo", out[1].Title)
}
