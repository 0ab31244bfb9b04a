// Package ingest turns uploaded feedback files into published corpus
// snapshots: parse, normalize, classify, aggregate, index.
package ingest

import (
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// Row is one raw feedback item as parsed from an upload or scrape payload,
// before normalization and classification. Timestamp and Engagement are
// optional; a zero Timestamp means the source carried none.
type Row struct {
	Text       string
	Timestamp  time.Time
	Engagement *int
	Source     corpus.Source
}
