package sentiment

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed lexicon.json
var lexiconFS embed.FS

// Lexicon is an immutable table of word valences. It is loaded once and
// passed explicitly into a Classifier; there is no package-level state.
type Lexicon struct {
	version string
	valence map[string]float64
}

// lexiconFile mirrors the embedded lexicon JSON.
type lexiconFile struct {
	Version string             `json:"version"`
	Entries map[string]float64 `json:"entries"`
}

// DefaultLexicon loads the embedded English valence lexicon.
func DefaultLexicon() (*Lexicon, error) {
	data, err := lexiconFS.ReadFile("lexicon.json")
	if err != nil {
		return nil, fmt.Errorf("reading embedded lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// ParseLexicon builds a Lexicon from JSON data. Tests use this to supply
// small fixture lexicons.
func ParseLexicon(data []byte) (*Lexicon, error) {
	var f lexiconFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing lexicon: %w", err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("lexicon has no version")
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("lexicon %s has no entries", f.Version)
	}
	return &Lexicon{version: f.Version, valence: f.Entries}, nil
}

// Version returns the lexicon's version string.
func (l *Lexicon) Version() string { return l.version }

// Len returns the number of entries.
func (l *Lexicon) Len() int { return len(l.valence) }

func (l *Lexicon) lookup(word string) (float64, bool) {
	v, ok := l.valence[word]
	return v, ok
}
