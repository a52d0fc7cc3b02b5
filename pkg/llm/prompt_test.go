package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	p := buildSystemPrompt("U.S. Treasury")
	assert.Contains(t, p, "U.S. Treasury")
	assert.Contains(t, p, "concise, neutral")
}

func TestBuildUserPromptIndexesArticles(t *testing.T) {
	p := buildUserPrompt("U.S. Treasury", testArticles())

	assert.Contains(t, p, "[1] Treasury announces buyback schedule")
	assert.Contains(t, p, "[2] Yields slide after auction")
	assert.Contains(t, p, "Source: Bloomberg | Published: 2026-08-27T09:00:00Z")
	assert.Contains(t, p, "URL: https://example.com/buyback")
	assert.Contains(t, p, "Market & Policy Takeaways")
	assert.Contains(t, p, "well-structured Markdown")
}
