// Package sentiment scores normalized feedback text with a lexicon and rule
// based polarity model. Scoring is a pure function over the text and the
// lexicon: no network calls, no randomness, no mutable state.
package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/mohitlamba65/social-media-sentiment-analysis/internal/corpus"
)

const (
	// Thresholds on the compound score. Consumers depend on these exact
	// boundaries; see LabelFor.
	positiveThreshold = 0.05
	negativeThreshold = -0.05

	// Rule constants, following the VADER heuristics.
	negationDamp    = -0.74  // negated valence is flipped and dampened
	boosterStep     = 0.293  // base increment for an intensifier
	shoutBoost      = 0.733  // all-caps emphasis
	exclamationAmp  = 0.292  // per trailing "!", capped
	maxExclamations = 4
	butDampBefore   = 0.5 // clauses before a "but" matter less
	butBoostAfter   = 1.5 // clauses after it matter more
	normalizeAlpha  = 15.0
	contextWindow   = 3 // how far back negations and boosters reach
)

// boosters scale the valence of the word they precede. Positive values
// intensify, negative values dampen.
var boosters = map[string]float64{
	"very": boosterStep, "really": boosterStep, "extremely": boosterStep,
	"absolutely": boosterStep, "completely": boosterStep, "totally": boosterStep,
	"so": boosterStep, "incredibly": boosterStep, "super": boosterStep,
	"highly": boosterStep, "utterly": boosterStep,
	"slightly": -boosterStep, "somewhat": -boosterStep, "kinda": -boosterStep,
	"barely": -boosterStep, "marginally": -boosterStep, "almost": -boosterStep,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "none": {}, "nobody": {}, "nothing": {},
	"neither": {}, "nor": {}, "cannot": {}, "can't": {}, "won't": {},
	"wouldn't": {}, "shouldn't": {}, "couldn't": {}, "doesn't": {}, "don't": {},
	"didn't": {}, "isn't": {}, "aren't": {}, "wasn't": {}, "weren't": {},
	"ain't": {}, "without": {}, "hardly": {}, "rarely": {}, "seldom": {},
}

// Classifier scores normalized text against an immutable Lexicon.
type Classifier struct {
	lex *Lexicon
}

// NewClassifier creates a Classifier over the given lexicon.
func NewClassifier(lex *Lexicon) *Classifier {
	return &Classifier{lex: lex}
}

// LexiconVersion returns the version of the lexicon in use. An index built
// against one lexicon version records it so consumers can detect drift.
func (c *Classifier) LexiconVersion() string { return c.lex.Version() }

// Classify returns the sentiment label and compound score for normalized
// text. Empty text deterministically yields (Neutral, 0).
func (c *Classifier) Classify(text string) (corpus.Label, float64) {
	score := c.Score(text)
	return LabelFor(score), score
}

// LabelFor maps a compound score to a label. The boundaries are inclusive:
// exactly 0.05 is Positive and exactly -0.05 is Negative.
func LabelFor(score float64) corpus.Label {
	switch {
	case score >= positiveThreshold:
		return corpus.LabelPositive
	case score <= negativeThreshold:
		return corpus.LabelNegative
	default:
		return corpus.LabelNeutral
	}
}

// Score computes the compound polarity score in [-1, 1].
func (c *Classifier) Score(text string) float64 {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return 0
	}

	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = strings.ToLower(strings.TrimFunc(tok, isTokenPunct))
	}

	valences := make([]float64, len(tokens))
	for i, tok := range tokens {
		w := words[i]
		if w == "" {
			continue
		}
		if _, isBooster := boosters[w]; isBooster {
			continue
		}
		v, ok := c.lex.lookup(w)
		if !ok {
			continue
		}

		if isShouting(strings.TrimFunc(tok, isTokenPunct)) {
			v += shoutBoost * sign(v)
		}

		// Boosters within the preceding window, with distance decay.
		for d := 1; d <= contextWindow && i-d >= 0; d++ {
			b, ok := boosters[words[i-d]]
			if !ok {
				continue
			}
			b *= decay(d)
			if v < 0 {
				b = -b
			}
			v += b
		}

		// A negation anywhere in the window flips and dampens.
		for d := 1; d <= contextWindow && i-d >= 0; d++ {
			if _, ok := negations[words[i-d]]; ok {
				v *= negationDamp
				break
			}
		}

		valences[i] = v
	}

	// Contrastive "but": earlier clauses are discounted, later ones weighted up.
	if bi := lastIndex(words, "but"); bi >= 0 {
		for i := range valences {
			if i < bi {
				valences[i] *= butDampBefore
			} else if i > bi {
				valences[i] *= butBoostAfter
			}
		}
	}

	var total float64
	for _, v := range valences {
		total += v
	}
	if total == 0 {
		return 0
	}

	total += punctuationEmphasis(text) * sign(total)

	compound := total / math.Sqrt(total*total+normalizeAlpha)
	return math.Max(-1, math.Min(1, compound))
}

// punctuationEmphasis counts terminal emphasis marks across the text.
func punctuationEmphasis(text string) float64 {
	ex := strings.Count(text, "!")
	if ex > maxExclamations {
		ex = maxExclamations
	}
	amp := float64(ex) * exclamationAmp

	qm := strings.Count(text, "?")
	if qm > 1 {
		if qm <= 3 {
			amp += float64(qm) * 0.18
		} else {
			amp += 0.96
		}
	}
	return amp
}

func decay(distance int) float64 {
	switch distance {
	case 1:
		return 1.0
	case 2:
		return 0.95
	default:
		return 0.9
	}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func lastIndex(words []string, target string) int {
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] == target {
			return i
		}
	}
	return -1
}

func isTokenPunct(r rune) bool {
	return unicode.IsPunct(r) && r != '\''
}

func isShouting(w string) bool {
	letters, upper := 0, 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 2 && upper == letters
}
