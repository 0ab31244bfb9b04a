// Package normalize cleans raw feedback text into a form the classifier and
// topic extraction can work with.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern     = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
)

// Result is the output of normalizing one raw text.
type Result struct {
	Text      string
	LowSignal bool // empty or whitespace-only input; downstream must not fail on it
}

// Normalize cleans raw text: URLs and @mentions are stripped, hashtags keep
// their bare word, runs of the same punctuation collapse to at most three,
// and whitespace is trimmed and collapsed. Casing is lowered except for
// fully-uppercase words, which keep their case as an emphasis cue for the
// classifier. Empty input yields an empty Result flagged LowSignal.
func Normalize(raw string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{LowSignal: true}
	}

	s := urlPattern.ReplaceAllString(raw, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "#", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	var prev rune
	var run int
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			sb.WriteRune(r)
			run = 0
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
			run = 0
		case isKeptPunct(r):
			if r == prev {
				run++
			} else {
				run = 1
			}
			if run <= 3 {
				sb.WriteRune(r)
			}
		default:
			// Emoji and other symbols are dropped.
			sb.WriteRune(' ')
			run = 0
		}
		prev = r
	}

	words := strings.Fields(sb.String())
	for i, w := range words {
		words[i] = lowerUnlessShouting(w)
	}

	out := strings.Join(words, " ")
	if out == "" {
		return Result{LowSignal: true}
	}
	return Result{Text: out}
}

func isKeptPunct(r rune) bool {
	switch r {
	case '!', '?', '.', ',', ';', ':', '-':
		return true
	}
	return false
}

// lowerUnlessShouting lowercases a word unless it is written entirely in
// uppercase letters (two or more), which the classifier treats as emphasis.
func lowerUnlessShouting(w string) string {
	letters := 0
	upper := 0
	for _, r := range w {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters >= 2 && upper == letters {
		return w
	}
	return strings.ToLower(w)
}
