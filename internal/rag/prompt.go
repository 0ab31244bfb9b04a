package rag

import (
	"fmt"
	"strings"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/index"
)

const defaultMaxContextTokens = 4000

const systemPreamble = `You are a customer-feedback analyst. Answer the question using only the retrieved feedback excerpts below. Cite the sentiment label of an excerpt when it supports your point. If the excerpts do not cover the question, say so instead of guessing.`

// Composer assembles the message list for generation: a system message with
// the retrieved excerpts, prior conversation turns, then the question.
type Composer struct {
	MaxContextTokens int
}

// NewComposer creates a Composer with the given token budget for injected
// context. If maxContextTokens <= 0, the default (4000) is used.
func NewComposer(maxContextTokens int) *Composer {
	if maxContextTokens <= 0 {
		maxContextTokens = defaultMaxContextTokens
	}
	return &Composer{MaxContextTokens: maxContextTokens}
}

// Compose builds the messages for one query. Chunks are expected sorted by
// score descending; lower-scoring chunks are dropped first when the token
// budget runs out.
func (c *Composer) Compose(question string, history []Turn, chunks []index.ScoredChunk) []engine.Message {
	var sb strings.Builder
	sb.WriteString(systemPreamble)

	remaining := c.MaxContextTokens - EstimateTokens(sb.String())

	var entries []string
	for _, ch := range chunks {
		entry := formatChunk(ch)
		tokens := EstimateTokens(entry)
		if tokens > remaining {
			continue
		}
		entries = append(entries, entry)
		remaining -= tokens
	}

	if len(entries) > 0 {
		sb.WriteString("\n\n[Retrieved Feedback]\n")
		for _, entry := range entries {
			sb.WriteString(entry)
		}
	}

	messages := []engine.Message{{Role: "system", Content: sb.String()}}
	for _, t := range history {
		messages = append(messages,
			engine.Message{Role: "user", Content: t.Question},
			engine.Message{Role: "assistant", Content: t.Answer},
		)
	}
	return append(messages, engine.Message{Role: "user", Content: question})
}

func formatChunk(ch index.ScoredChunk) string {
	return fmt.Sprintf("(Score: %.2f, Sentiment: %s, Record: %s)\n%s\n\n", ch.Score, ch.Label, ch.RecordID, ch.Text)
}

// EstimateTokens provides a rough token count using 4 chars per token heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
