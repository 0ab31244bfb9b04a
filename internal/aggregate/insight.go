package aggregate

import (
	"math"
	"sort"
	"strings"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// buildInsight derives the roll-up market read. The mood score is
// (positive - negative) / total; the mood labels and confidence bands follow
// the dashboard's established thresholds.
func buildInsight(records []corpus.Record, dist Distribution) Insight {
	total := len(records)
	pos := dist.Counts[corpus.LabelPositive]
	neg := dist.Counts[corpus.LabelNegative]
	neu := dist.Counts[corpus.LabelNeutral]

	score := float64(pos-neg) / float64(total)
	ins := Insight{MoodScore: round3(score)}

	switch {
	case score > 0.2:
		ins.OverallMood = "Very Positive"
		ins.Confidence = math.Min(95, 70+score*50)
	case score > 0.05:
		ins.OverallMood = "Positive"
		ins.Confidence = 65
	case score < -0.2:
		ins.OverallMood = "Very Negative"
		ins.Confidence = math.Min(95, 70+math.Abs(score)*50)
	case score < -0.05:
		ins.OverallMood = "Negative"
		ins.Confidence = 65
	default:
		ins.OverallMood = "Neutral"
		ins.Confidence = 55
	}

	ins.EngagementTrend = engagementTrend(records)

	posPct := float64(pos) * 100 / float64(total)
	negPct := float64(neg) * 100 / float64(total)
	neuPct := float64(neu) * 100 / float64(total)
	switch {
	case posPct > 60:
		ins.Recommendations = append(ins.Recommendations,
			"Strong positive sentiment - maintain current strategy",
			"Consider amplifying positive messaging")
	case negPct > 40:
		ins.Recommendations = append(ins.Recommendations,
			"High negative sentiment detected",
			"Immediate action recommended - investigate root causes",
			"Increase customer engagement and support")
	case neuPct > 50:
		ins.Recommendations = append(ins.Recommendations,
			"High neutral sentiment - opportunity to create stronger emotional connection",
			"Focus on creating more engaging content")
	}

	if rec := momentum(records); rec != "" {
		ins.Recommendations = append(ins.Recommendations, rec)
	}
	return ins
}

// engagementTrend compares mean engagement of positive vs negative records.
func engagementTrend(records []corpus.Record) string {
	var posSum, negSum float64
	var posN, negN int
	for _, r := range records {
		if r.Engagement == nil {
			continue
		}
		switch r.Label {
		case corpus.LabelPositive:
			posSum += float64(*r.Engagement)
			posN++
		case corpus.LabelNegative:
			negSum += float64(*r.Engagement)
			negN++
		}
	}
	if posN == 0 && negN == 0 {
		return ""
	}

	var posAvg, negAvg float64
	if posN > 0 {
		posAvg = posSum / float64(posN)
	}
	if negN > 0 {
		negAvg = negSum / float64(negN)
	}
	switch {
	case posAvg > negAvg*1.5:
		return "Positive content drives higher engagement"
	case negAvg > posAvg*1.5:
		return "Negative content drives higher engagement"
	default:
		return "Balanced engagement across sentiments"
	}
}

// momentum compares the positive share of the earlier half of timestamped
// records against the later half.
func momentum(records []corpus.Record) string {
	var timed []corpus.Record
	for _, r := range records {
		if r.HasTimestamp() {
			timed = append(timed, r)
		}
	}
	if len(timed) < 4 {
		return ""
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].Timestamp.Before(timed[j].Timestamp) })

	mid := len(timed) / 2
	firstPos := positiveShare(timed[:mid])
	secondPos := positiveShare(timed[mid:])
	switch {
	case secondPos > firstPos+0.1:
		return "Sentiment is improving over time"
	case secondPos < firstPos-0.1:
		return "Sentiment is declining - requires attention"
	default:
		return ""
	}
}

func positiveShare(records []corpus.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	pos := 0
	for _, r := range records {
		if r.Label == corpus.LabelPositive {
			pos++
		}
	}
	return float64(pos) / float64(len(records))
}

// issueFamilies groups keywords that point at one kind of concern.
var issueFamilies = []struct {
	name     string
	keywords []string
}{
	{"Quality", []string{"quality", "broken", "defect", "defective", "faulty", "poor"}},
	{"Service", []string{"service", "support", "help", "response", "staff"}},
	{"Price", []string{"price", "expensive", "cost", "overpriced", "refund"}},
	{"Delivery", []string{"delivery", "shipping", "late", "delayed", "arrived"}},
	{"Performance", []string{"slow", "lag", "crash", "bug", "error", "freeze"}},
}

const maxIssues = 5

// emergingIssues scans negative records for known concern keywords. Severity
// bands at 10% and 30% of the negative population.
func emergingIssues(records []corpus.Record) []Issue {
	var negative []corpus.Record
	for _, r := range records {
		if r.Label == corpus.LabelNegative {
			negative = append(negative, r)
		}
	}
	if len(negative) == 0 {
		return nil
	}

	var issues []Issue
	for _, fam := range issueFamilies {
		count := 0
		for _, r := range negative {
			if containsAny(r.NormalizedText, fam.keywords) {
				count++
			}
		}
		if count == 0 {
			continue
		}
		share := float64(count) / float64(len(negative))
		severity := "Low"
		switch {
		case share > 0.3:
			severity = "High"
		case share > 0.1:
			severity = "Medium"
		}
		issues = append(issues, Issue{
			Name:     fam.name,
			Mentions: count,
			Severity: severity,
			Percent:  round1(share * 100),
		})
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Mentions != issues[j].Mentions {
			return issues[i].Mentions > issues[j].Mentions
		}
		return issues[i].Name < issues[j].Name
	})
	if len(issues) > maxIssues {
		issues = issues[:maxIssues]
	}
	return issues
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
