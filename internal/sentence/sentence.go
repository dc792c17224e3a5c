// Package sentence holds the recognized-sentence state on the client side:
// the growing word list with per-word confidence and alternatives, and the
// single active disambiguation prompt. Authoritative state lives on the
// backend; this store applies polled snapshots and reconciles them against
// optimistic local edits using a monotonic sequence number.
package sentence

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
)

// Confidence tier thresholds. The lower bound of each tier is inclusive.
const (
	ConfirmedThreshold = 0.80
	UncertainThreshold = 0.50
)

// Tier classifies a word's recognition confidence for display.
type Tier int

const (
	TierLow Tier = iota
	TierUncertain
	TierConfirmed
)

// TierFor maps a confidence value to its display tier.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= ConfirmedThreshold:
		return TierConfirmed
	case confidence >= UncertainThreshold:
		return TierUncertain
	default:
		return TierLow
	}
}

// String returns the tier name used in status output.
func (t Tier) String() string {
	switch t {
	case TierConfirmed:
		return "confirmed"
	case TierUncertain:
		return "uncertain"
	default:
		return "low-confidence"
	}
}

// Icon returns the marker rendered next to a word of this tier.
func (t Tier) Icon() string {
	switch t {
	case TierConfirmed:
		return "✓"
	case TierUncertain:
		return "⚠"
	default:
		return "!"
	}
}

// Alternative is one candidate word with its model confidence.
type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Word is one recognized word in the output sentence. ID is the backend's
// stable identifier used for replacement.
type Word struct {
	ID           int           `json:"id"`
	Word         string        `json:"word"`
	Confidence   float64       `json:"confidence"`
	Auto         bool          `json:"auto"`
	Alternatives []Alternative `json:"alternatives"`
}

// Tier returns the word's confidence tier.
func (w Word) Tier() Tier {
	return TierFor(w.Confidence)
}

// Prediction is a disambiguation request: the model's top-5 candidates for a
// sign it could not confidently place.
type Prediction struct {
	Top5       []Alternative `json:"top5"`
	Confidence float64       `json:"confidence"`
}

// Store is the client-side sentence state. At most one Prediction is active
// at a time.
type Store struct {
	mu             sync.Mutex
	seq            uint64
	localSeq       uint64 // sequence at the time of the last optimistic edit
	words          []Word
	pending        *Prediction
	lastPendingKey string
}

// NewStore returns an empty sentence store.
func NewStore() *Store {
	return &Store{}
}

// NextSeq hands out the sequence number for one poll cycle. Responses are
// applied with the sequence of the cycle that fetched them, so a response
// that raced a local edit can be recognized as stale.
func (s *Store) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// ApplyWords replaces the word list with an authoritative poll snapshot.
// Snapshots fetched before the latest optimistic edit are dropped. Returns
// true if the visible word list changed.
func (s *Store) ApplyWords(seq uint64, words []Word) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.localSeq {
		return false
	}
	if reflect.DeepEqual(s.words, words) {
		return false
	}
	s.words = words
	return true
}

// ApplyPredictions applies a polled pending-prediction snapshot. Identical
// consecutive snapshots do not reopen the prompt, and a new prompt is never
// surfaced while one is already active. Returns true if a prompt opened.
func (s *Store) ApplyPredictions(seq uint64, preds []Prediction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.localSeq {
		return false
	}
	if len(preds) == 0 {
		s.lastPendingKey = ""
		s.pending = nil
		return false
	}

	key := predictionKey(preds)
	if key == s.lastPendingKey {
		return false
	}
	s.lastPendingKey = key

	if s.pending != nil {
		return false
	}
	p := preds[0]
	s.pending = &p
	return true
}

// Words returns a copy of the current word list.
func (s *Store) Words() []Word {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Word, len(s.words))
	copy(out, s.words)
	return out
}

// Text returns the sentence as a space-joined string.
func (s *Store) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, len(s.words))
	for i, w := range s.words {
		parts[i] = w.Word
	}
	return strings.Join(parts, " ")
}

// Pending returns a copy of the active disambiguation prompt, or nil.
func (s *Store) Pending() *Prediction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// HasPending reports whether a disambiguation prompt is open.
func (s *Store) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// ResetTransient wipes the word list and the open prompt locally, without a
// backend write, and fences off polls fetched before the reset. Used when a
// mode swap tears down mid-session state; the next poll cycle in
// video-to-text mode re-applies whatever the backend still holds.
func (s *Store) ResetTransient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = nil
	s.pending = nil
	s.lastPendingKey = ""
	s.localSeq = s.seq
}

// clearPendingLocal drops the prompt optimistically and fences off polls
// fetched at or before the current sequence.
func (s *Store) clearPendingLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.localSeq = s.seq
}

// replaceWordLocal edits a word in place optimistically.
func (s *Store) replaceWordLocal(id int, newWord string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.words {
		if s.words[i].ID == id {
			s.words[i].Word = newWord
			s.words[i].Auto = false
			s.localSeq = s.seq
			return true
		}
	}
	return false
}

// clearAllLocal wipes the sentence and prompt optimistically.
func (s *Store) clearAllLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = nil
	s.pending = nil
	s.lastPendingKey = ""
	s.localSeq = s.seq
}

func predictionKey(preds []Prediction) string {
	data, err := json.Marshal(preds)
	if err != nil {
		return ""
	}
	return string(data)
}
