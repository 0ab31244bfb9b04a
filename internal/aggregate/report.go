// Package aggregate rolls labeled records into the market-insight report the
// dashboard renders. Reports are derived snapshots: built once per corpus
// version and replaced, never mutated.
package aggregate

import (
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// ErrEmptyCorpus is returned when a report is requested over a corpus with no
// valid records. Callers surface this to the user; it is not a crash.
var ErrEmptyCorpus = corpus.ErrEmptyCorpus

// Report is the read-only aggregate snapshot for one corpus version.
type Report struct {
	CorpusVersion uint64    `json:"corpus_version"`
	GeneratedAt   time.Time `json:"generated_at"`

	TotalRecords int `json:"total_records"`
	// Excluded counts rows dropped at ingestion plus records skipped here
	// for having no classification.
	Excluded int `json:"excluded"`

	Distribution Distribution `json:"sentiment_distribution"`
	Topics       []Topic      `json:"trending_topics"`

	// EngagementCorrelation is the Pearson correlation between engagement
	// counts and sentiment scores. nil when undefined (fewer than two
	// engagement-bearing records, or zero variance).
	EngagementCorrelation *float64 `json:"engagement_correlation"`

	Trend   []TrendBucket `json:"sentiment_trend,omitempty"`
	Insight Insight       `json:"market_insight"`
	Issues  []Issue       `json:"emerging_issues,omitempty"`
}

// Distribution holds exact label counts and reconciled whole percentages.
// The percentages always sum to exactly 100.
type Distribution struct {
	Counts  map[corpus.Label]int `json:"counts"`
	Percent map[corpus.Label]int `json:"percent"`
}

// Topic is one trending term with its sentiment breakdown.
type Topic struct {
	Term         string       `json:"term"`
	Frequency    int          `json:"frequency"`
	AvgSentiment float64      `json:"avg_sentiment"`
	Positive     int          `json:"positive"`
	Negative     int          `json:"negative"`
	Neutral      int          `json:"neutral"`
	Dominant     corpus.Label `json:"dominant_sentiment"`
}

// TrendBucket is one time bucket of label counts.
type TrendBucket struct {
	Start  time.Time            `json:"start"`
	Counts map[corpus.Label]int `json:"counts"`
}

// Insight is the roll-up market read derived from the distribution.
type Insight struct {
	OverallMood     string   `json:"overall_mood"`
	MoodScore       float64  `json:"mood_score"` // (positive - negative) / total, in [-1, 1]
	Confidence      float64  `json:"confidence"` // percentage estimate
	EngagementTrend string   `json:"engagement_trend,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Issue is one detected concern cluster among negative records.
type Issue struct {
	Name     string  `json:"name"`
	Mentions int     `json:"mentions"`
	Severity string  `json:"severity"` // "Low", "Medium", "High"
	Percent  float64 `json:"percent"`  // share of negative records, one decimal
}
