package aggregate

import (
	"sort"
	"strings"
	"unicode"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

// minTopicLen filters out short filler words that survive the stopword list.
const minTopicLen = 4

var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "aren't": {},
	"as": {}, "at": {}, "be": {}, "because": {}, "been": {}, "before": {},
	"being": {}, "below": {}, "between": {}, "both": {}, "but": {}, "by": {},
	"can": {}, "can't": {}, "could": {}, "couldn't": {}, "did": {}, "didn't": {},
	"do": {}, "does": {}, "doesn't": {}, "doing": {}, "don't": {}, "down": {},
	"during": {}, "each": {}, "few": {}, "for": {}, "from": {}, "further": {},
	"had": {}, "has": {}, "have": {}, "haven't": {}, "having": {}, "he": {},
	"her": {}, "here": {}, "hers": {}, "him": {}, "his": {}, "how": {}, "i": {},
	"if": {}, "in": {}, "into": {}, "is": {}, "isn't": {}, "it": {}, "it's": {},
	"its": {}, "itself": {}, "just": {}, "me": {}, "more": {}, "most": {},
	"my": {}, "myself": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {},
	"off": {}, "on": {}, "once": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "ours": {}, "out": {}, "over": {}, "own": {}, "same": {},
	"she": {}, "should": {}, "so": {}, "some": {}, "such": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "theirs": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {}, "through": {},
	"to": {}, "too": {}, "under": {}, "until": {}, "up": {}, "very": {},
	"was": {}, "wasn't": {}, "we": {}, "were": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "while": {}, "who": {}, "whom": {}, "why": {},
	"will": {}, "with": {}, "won't": {}, "would": {}, "wouldn't": {}, "you": {},
	"your": {}, "yours": {}, "yourself": {}, "also": {}, "really": {},
	"ever": {}, "even": {}, "much": {}, "many": {}, "still": {},
}

// trendingTopics extracts the top-N frequent non-stopword terms across the
// normalized text, together with a per-term sentiment breakdown. Ranking is
// by frequency descending; ties break lexicographically ascending so the
// result is deterministic.
func trendingTopics(records []corpus.Record, limit int) []Topic {
	type tally struct {
		freq     int
		scoreSum float64
		pos      int
		neg      int
		neu      int
	}
	tallies := make(map[string]*tally)

	for _, r := range records {
		for _, term := range topicTerms(r.NormalizedText) {
			tl := tallies[term]
			if tl == nil {
				tl = &tally{}
				tallies[term] = tl
			}
			tl.freq++
			tl.scoreSum += r.Score
			switch r.Label {
			case corpus.LabelPositive:
				tl.pos++
			case corpus.LabelNegative:
				tl.neg++
			default:
				tl.neu++
			}
		}
	}

	topics := make([]Topic, 0, len(tallies))
	for term, tl := range tallies {
		topics = append(topics, Topic{
			Term:         term,
			Frequency:    tl.freq,
			AvgSentiment: tl.scoreSum / float64(tl.freq),
			Positive:     tl.pos,
			Negative:     tl.neg,
			Neutral:      tl.neu,
			Dominant:     dominantLabel(tl.pos, tl.neg, tl.neu),
		})
	}

	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Frequency != topics[j].Frequency {
			return topics[i].Frequency > topics[j].Frequency
		}
		return topics[i].Term < topics[j].Term
	})
	if len(topics) > limit {
		topics = topics[:limit]
	}
	return topics
}

// topicTerms tokenizes normalized text into candidate topic terms: purely
// alphabetic, long enough to carry meaning, and not a stopword. Each term is
// counted once per record so a repeated word cannot dominate from one review.
func topicTerms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, tok := range strings.Fields(text) {
		w := strings.ToLower(strings.TrimFunc(tok, unicode.IsPunct))
		if len(w) < minTopicLen || !isAlphabetic(w) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

func isAlphabetic(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func dominantLabel(pos, neg, neu int) corpus.Label {
	// Ties resolve toward Neutral, then Negative, matching priority of the
	// less alarming read only when counts are strictly equal.
	switch {
	case pos > neg && pos > neu:
		return corpus.LabelPositive
	case neg > pos && neg > neu:
		return corpus.LabelNegative
	default:
		return corpus.LabelNeutral
	}
}
