package index

import (
	"strings"
	"unicode"
)

// Default chunking geometry. Feedback records are short, so most become a
// single chunk; the split path exists for long-form reviews and PDF exports.
const (
	DefaultChunkSize = 400
	DefaultOverlap   = 60
)

// Split breaks text into chunks of at most maxRunes runes, preferring sentence
// boundaries. Consecutive chunks overlap by roughly overlapRunes runes so a
// statement straddling a boundary stays retrievable. Text that fits in one
// chunk is returned as-is.
func Split(text string, maxRunes, overlapRunes int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxRunes <= 0 {
		maxRunes = DefaultChunkSize
	}
	if overlapRunes < 0 || overlapRunes >= maxRunes {
		overlapRunes = 0
	}
	if len([]rune(text)) <= maxRunes {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []rune
	for _, s := range sentences {
		runes := []rune(s)
		// A single sentence longer than the budget is hard-split.
		if len(runes) > maxRunes {
			if len(current) > 0 {
				chunks = append(chunks, string(current))
				current = nil
			}
			chunks = append(chunks, hardSplit(runes, maxRunes, overlapRunes)...)
			continue
		}
		if len(current)+len(runes)+1 > maxRunes {
			chunks = append(chunks, string(current))
			current = tailRunes(current, overlapRunes)
			// Drop the overlap when the next sentence would not fit with it.
			if len(current)+len(runes)+1 > maxRunes {
				current = nil
			}
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, runes...)
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}

	for i, c := range chunks {
		chunks[i] = strings.TrimSpace(c)
	}
	return chunks
}

// splitSentences breaks text on terminal punctuation followed by whitespace.
// The terminator stays attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current []rune
	runes := []rune(text)
	for i, r := range runes {
		current = append(current, r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			if atEnd || unicode.IsSpace(runes[i+1]) {
				s := strings.TrimSpace(string(current))
				if s != "" {
					sentences = append(sentences, s)
				}
				current = current[:0]
			}
		}
	}
	if s := strings.TrimSpace(string(current)); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit slices an over-long sentence into fixed windows with overlap,
// backing off to the nearest space so words stay whole where possible.
func hardSplit(runes []rune, maxRunes, overlapRunes int) []string {
	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + maxRunes
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		cut := end
		for cut > start+maxRunes/2 && !unicode.IsSpace(runes[cut]) {
			cut--
		}
		if cut == start+maxRunes/2 {
			cut = end
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))
		next := cut - overlapRunes
		if next <= start {
			next = cut
		}
		start = next
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
	}
	return chunks
}

// tailRunes returns the last n runes of r, starting after the first space in
// the window so the overlap begins on a word boundary.
func tailRunes(r []rune, n int) []rune {
	if n <= 0 || len(r) == 0 {
		return nil
	}
	if n >= len(r) {
		n = len(r)
	}
	tail := r[len(r)-n:]
	for i, c := range tail {
		if unicode.IsSpace(c) {
			tail = tail[i+1:]
			break
		}
	}
	out := make([]rune, len(tail))
	copy(out, tail)
	return out
}
