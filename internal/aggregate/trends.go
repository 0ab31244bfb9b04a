package aggregate

import (
	"sort"
	"time"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// bucketFreq picks the trend granularity from the corpus time span: daily
// under 60 days, weekly under a year, monthly beyond.
type bucketFreq int

const (
	bucketDaily bucketFreq = iota
	bucketWeekly
	bucketMonthly
)

// sentimentTrend buckets label counts over time. Records without timestamps
// are left out; fewer than two timestamped records yield no trend.
func sentimentTrend(records []corpus.Record) []TrendBucket {
	var timed []corpus.Record
	for _, r := range records {
		if r.HasTimestamp() {
			timed = append(timed, r)
		}
	}
	if len(timed) < 2 {
		return nil
	}

	minT, maxT := timed[0].Timestamp, timed[0].Timestamp
	for _, r := range timed[1:] {
		if r.Timestamp.Before(minT) {
			minT = r.Timestamp
		}
		if r.Timestamp.After(maxT) {
			maxT = r.Timestamp
		}
	}

	freq := bucketDaily
	span := maxT.Sub(minT)
	switch {
	case span >= 365*24*time.Hour:
		freq = bucketMonthly
	case span >= 60*24*time.Hour:
		freq = bucketWeekly
	}

	buckets := make(map[time.Time]map[corpus.Label]int)
	for _, r := range timed {
		start := bucketStart(r.Timestamp, freq)
		if buckets[start] == nil {
			buckets[start] = make(map[corpus.Label]int)
		}
		buckets[start][r.Label]++
	}

	out := make([]TrendBucket, 0, len(buckets))
	for start, counts := range buckets {
		out = append(out, TrendBucket{Start: start, Counts: counts})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func bucketStart(t time.Time, freq bucketFreq) time.Time {
	t = t.UTC()
	switch freq {
	case bucketMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case bucketWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		// Snap back to Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}
