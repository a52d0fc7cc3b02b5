package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/briefwire/briefwire/internal/domain"
)

// buildSystemPrompt frames the model as a curator for the given topic.
func buildSystemPrompt(topic string) string {
	return fmt.Sprintf(
		"You are a professional journalist and policy analyst who curates news "+
			"about %s for senior decision-makers. Your tone is concise, neutral, "+
			"and insight-driven.", topic)
}

// buildUserPrompt renders the articles into a compact indexed block and asks
// for a themed markdown brief.
func buildUserPrompt(topic string, articles []domain.Article) string {
	var block strings.Builder
	for i, a := range articles {
		if i > 0 {
			block.WriteString("\n\n")
		}
		fmt.Fprintf(&block, "[%d] %s\n", i+1, a.Title)
		fmt.Fprintf(&block, "Source: %s | Published: %s\n", a.Source, formatPublishedAt(a.PublishedAt))
		fmt.Fprintf(&block, "Summary: %s\n", a.Description)
		fmt.Fprintf(&block, "URL: %s", a.URL)
	}

	return fmt.Sprintf(`I will give you a list of recent news articles related to %s.

Articles:
%s

Tasks:
1. Identify the 3-7 most important themes or stories.
2. For each, provide:
   - A short headline in plain English.
   - 2-4 sentence summary in business / policy terms.
   - Mention specific actions, policy changes, or market impacts if applicable.
3. Add a brief 'Market & Policy Takeaways' section (3-5 bullet points).
4. Group related articles when they cover the same story; reference their article indices in brackets (e.g., [1, 3, 5]).

Output in **well-structured Markdown** suitable for an email body, with clear headings, bullet points, and embedded URLs where useful.`,
		topic, block.String())
}

func formatPublishedAt(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
