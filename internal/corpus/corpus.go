// Package corpus defines the records and record batches that the rest of the
// system analyzes. A Corpus is one ingestion batch; it is built once, labeled
// once, and never mutated afterward. New uploads produce a replacement Corpus
// with a higher version instead of patching the old one.
package corpus

import (
	"errors"
	"time"
)

// ErrEmptyCorpus is returned by consumers that need at least one usable
// record (report building, index building) when the corpus has none.
var ErrEmptyCorpus = errors.New("corpus has no valid records")

// Source identifies where a record originally came from.
type Source string

const (
	SourceUpload Source = "upload"
	SourceScrape Source = "scrape"
)

// Label is the sentiment classification of a single record.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
	LabelUnset    Label = "Unset"
)

// Record is one piece of customer feedback. RawText is set at ingestion,
// NormalizedText by the normalizer, Label and Score by the classifier.
// After classification a Record is treated as immutable.
type Record struct {
	ID             string    `json:"id"`
	RawText        string    `json:"raw_text"`
	NormalizedText string    `json:"normalized_text"`
	LowSignal      bool      `json:"low_signal"`
	Timestamp      time.Time `json:"timestamp,omitempty"` // zero value means absent
	Source         Source    `json:"source"`
	Engagement     *int      `json:"engagement_count,omitempty"`
	Label          Label     `json:"sentiment_label"`
	Score          float64   `json:"sentiment_score"`
}

// HasTimestamp reports whether the record carries a usable timestamp.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Corpus is an ordered batch of labeled records sharing one ingestion event.
type Corpus struct {
	Version    uint64    `json:"version"`
	SourceName string    `json:"source_name"`
	CreatedAt  time.Time `json:"created_at"`
	Records    []Record  `json:"records"`
	Excluded   int       `json:"excluded"` // rows dropped during ingestion validation
}

// Len returns the number of records in the corpus.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}
