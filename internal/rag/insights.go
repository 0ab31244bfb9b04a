package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/aggregate"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/engine"
)

const insightsPreamble = `You are a customer-feedback analyst. Given the aggregate statistics below, write a short briefing: the overall mood, what is driving it, and two or three concrete actions. Plain text, no headings.`

// GenerateInsights produces a one-shot narrative briefing from the aggregate
// report. Unlike Ask it never touches the retrieval index; the report alone
// is the context.
func GenerateInsights(ctx context.Context, e engine.Engine, model string, report *aggregate.Report) (string, error) {
	if report == nil {
		return "", fmt.Errorf("generating insights: %w", corpus.ErrEmptyCorpus)
	}

	messages := []engine.Message{
		{Role: "system", Content: insightsPreamble},
		{Role: "user", Content: summarizeReport(report)},
	}
	text, err := e.Generate(ctx, model, messages)
	if err != nil {
		return "", fmt.Errorf("generating insights: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// summarizeReport renders the report facts the model needs, nothing more.
func summarizeReport(r *aggregate.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Records analyzed: %d (%d excluded)\n", r.TotalRecords, r.Excluded)
	fmt.Fprintf(&sb, "Sentiment split: %d%% positive, %d%% neutral, %d%% negative\n",
		r.Distribution.Percent[corpus.LabelPositive],
		r.Distribution.Percent[corpus.LabelNeutral],
		r.Distribution.Percent[corpus.LabelNegative])

	fmt.Fprintf(&sb, "Overall mood: %s (confidence %.0f%%)\n", r.Insight.OverallMood, r.Insight.Confidence)
	if r.Insight.EngagementTrend != "" {
		fmt.Fprintf(&sb, "Engagement trend: %s\n", r.Insight.EngagementTrend)
	}

	if len(r.Topics) > 0 {
		var terms []string
		for _, t := range r.Topics {
			terms = append(terms, fmt.Sprintf("%s (%d mentions, mostly %s)", t.Term, t.Frequency, t.Dominant))
		}
		fmt.Fprintf(&sb, "Trending topics: %s\n", strings.Join(terms, "; "))
	}

	for _, issue := range r.Issues {
		fmt.Fprintf(&sb, "Emerging issue: %s, severity %s, %d mentions\n", issue.Name, issue.Severity, issue.Mentions)
	}

	if r.EngagementCorrelation != nil {
		fmt.Fprintf(&sb, "Engagement/sentiment correlation: %.3f\n", *r.EngagementCorrelation)
	}

	return sb.String()
}
