package textclean

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// WordSet is the static permitted-word list for text-to-video input. Words
// outside the set are flagged as a non-fatal warning; translation proceeds
// regardless.
type WordSet struct {
	words map[string]struct{}
}

// NewWordSet builds a set from a word list; matching is case-insensitive.
func NewWordSet(words []string) *WordSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return &WordSet{words: set}
}

// LoadWordSet reads a JSON array of permitted words from path.
func LoadWordSet(path string) (*WordSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	var words []string
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse word list: %w", err)
	}
	return NewWordSet(words), nil
}

// Len returns the number of permitted words.
func (s *WordSet) Len() int {
	return len(s.words)
}

// Missing returns the words of cleaned text that are not in the permitted
// set, in input order.
func (s *WordSet) Missing(text string) []string {
	var missing []string
	for _, w := range strings.Fields(text) {
		if _, ok := s.words[strings.ToLower(w)]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}
