package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

const defaultTopicLimit = 10

// Builder computes reports from labeled corpora.
type Builder struct {
	topicLimit int
}

// NewBuilder creates a Builder. topicLimit bounds the trending-topic list;
// values <= 0 use the default (10).
func NewBuilder(topicLimit int) *Builder {
	if topicLimit <= 0 {
		topicLimit = defaultTopicLimit
	}
	return &Builder{topicLimit: topicLimit}
}

// Build derives a Report from the corpus. Records without a classification
// are skipped and counted as excluded; only a corpus with zero valid records
// fails, with ErrEmptyCorpus.
func (b *Builder) Build(c *corpus.Corpus) (*Report, error) {
	if c == nil || c.Len() == 0 {
		return nil, ErrEmptyCorpus
	}

	var valid []corpus.Record
	skipped := 0
	for _, r := range c.Records {
		if r.Label == corpus.LabelUnset || r.Label == "" {
			skipped++
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyCorpus
	}

	rep := &Report{
		CorpusVersion: c.Version,
		GeneratedAt:   time.Now().UTC(),
		TotalRecords:  len(valid),
		Excluded:      c.Excluded + skipped,
		Distribution:  distribution(valid),
		Topics:        trendingTopics(valid, b.topicLimit),
		Trend:         sentimentTrend(valid),
		Issues:        emergingIssues(valid),
	}
	rep.EngagementCorrelation = engagementCorrelation(valid)
	rep.Insight = buildInsight(valid, rep.Distribution)
	return rep, nil
}

// distribution counts labels and reconciles whole percentages to sum to
// exactly 100 using largest remainders; ties break on label name ascending.
func distribution(records []corpus.Record) Distribution {
	counts := map[corpus.Label]int{
		corpus.LabelPositive: 0,
		corpus.LabelNegative: 0,
		corpus.LabelNeutral:  0,
	}
	for _, r := range records {
		counts[r.Label]++
	}

	total := len(records)
	labels := []corpus.Label{corpus.LabelNegative, corpus.LabelNeutral, corpus.LabelPositive}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	percent := make(map[corpus.Label]int, len(labels))
	type remainder struct {
		label corpus.Label
		frac  float64
	}
	var rems []remainder
	assigned := 0
	for _, l := range labels {
		exact := float64(counts[l]) * 100 / float64(total)
		floor := int(math.Floor(exact))
		percent[l] = floor
		assigned += floor
		rems = append(rems, remainder{label: l, frac: exact - float64(floor)})
	}

	sort.Slice(rems, func(i, j int) bool {
		if rems[i].frac != rems[j].frac {
			return rems[i].frac > rems[j].frac
		}
		return rems[i].label < rems[j].label
	})
	for i := 0; assigned < 100; i++ {
		percent[rems[i%len(rems)].label]++
		assigned++
	}

	return Distribution{Counts: counts, Percent: percent}
}

// engagementCorrelation computes the Pearson correlation between engagement
// counts and sentiment scores. Returns nil when it is undefined.
func engagementCorrelation(records []corpus.Record) *float64 {
	var xs, ys []float64
	for _, r := range records {
		if r.Engagement == nil {
			continue
		}
		xs = append(xs, float64(*r.Engagement))
		ys = append(ys, r.Score)
	}
	if len(xs) < 2 {
		return nil
	}

	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}

	r := cov / math.Sqrt(varX*varY)
	return &r
}
