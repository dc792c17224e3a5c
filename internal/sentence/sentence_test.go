package sentence

import (
	"reflect"
	"testing"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Tier
	}{
		{0.95, TierConfirmed},
		{0.80, TierConfirmed}, // lower bound is inclusive
		{0.79, TierUncertain},
		{0.50, TierUncertain},
		{0.49, TierLow},
		{0.0, TierLow},
	}
	for _, tt := range tests {
		if got := TierFor(tt.confidence); got != tt.want {
			t.Errorf("TierFor(%v) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestTierDisplay(t *testing.T) {
	if TierConfirmed.Icon() != "✓" || TierUncertain.Icon() != "⚠" || TierLow.Icon() != "!" {
		t.Error("tier icons changed")
	}
	if TierConfirmed.String() != "confirmed" {
		t.Errorf("String() = %q", TierConfirmed.String())
	}
}

func TestApplyWordsIdempotent(t *testing.T) {
	s := NewStore()
	words := []Word{
		{ID: 0, Word: "HELLO", Confidence: 0.9},
		{ID: 1, Word: "SHOP", Confidence: 0.6},
	}

	seq := s.NextSeq()
	if !s.ApplyWords(seq, words) {
		t.Fatal("first snapshot should change the list")
	}
	if s.Text() != "HELLO SHOP" {
		t.Errorf("Text = %q", s.Text())
	}

	// The same snapshot one cycle later changes nothing
	seq = s.NextSeq()
	if s.ApplyWords(seq, words) {
		t.Error("identical snapshot reported a change")
	}
}

func TestApplyWordsStaleSnapshotDropped(t *testing.T) {
	s := NewStore()
	seqOld := s.NextSeq()
	seqNew := s.NextSeq()
	if !s.ApplyWords(seqNew, []Word{{ID: 0, Word: "NEW"}}) {
		t.Fatal("fresh snapshot rejected")
	}

	// A local edit fences off anything fetched at or before the edit
	s.replaceWordLocal(0, "EDITED")
	if s.ApplyWords(seqOld, []Word{{ID: 0, Word: "OLD"}}) {
		t.Error("stale snapshot overwrote a local edit")
	}
	if s.Text() != "EDITED" {
		t.Errorf("Text = %q, want EDITED", s.Text())
	}

	// The next cycle's snapshot is authoritative again
	if !s.ApplyWords(s.NextSeq(), []Word{{ID: 0, Word: "SERVER"}}) {
		t.Error("post-edit snapshot rejected")
	}
}

func TestApplyPredictionsOpensOnce(t *testing.T) {
	s := NewStore()
	preds := []Prediction{{
		Top5:       []Alternative{{Label: "SHOP", Confidence: 0.6}, {Label: "STORE", Confidence: 0.3}},
		Confidence: 0.6,
	}}

	if !s.ApplyPredictions(s.NextSeq(), preds) {
		t.Fatal("prediction should open a prompt")
	}
	if !s.HasPending() {
		t.Fatal("HasPending = false after open")
	}

	// The same snapshot again must not re-open
	if s.ApplyPredictions(s.NextSeq(), preds) {
		t.Error("identical snapshot reopened the prompt")
	}
}

func TestApplyPredictionsOneAtATime(t *testing.T) {
	s := NewStore()
	first := []Prediction{{Top5: []Alternative{{Label: "A", Confidence: 0.6}}, Confidence: 0.6}}
	second := []Prediction{{Top5: []Alternative{{Label: "B", Confidence: 0.7}}, Confidence: 0.7}}

	if !s.ApplyPredictions(s.NextSeq(), first) {
		t.Fatal("first prompt should open")
	}
	// A different prediction arriving mid-prompt is noted but not surfaced
	if s.ApplyPredictions(s.NextSeq(), second) {
		t.Error("second prompt opened while first still active")
	}
	if got := s.Pending().Top5[0].Label; got != "A" {
		t.Errorf("pending = %q, want the first prompt", got)
	}
}

func TestApplyPredictionsEmptyCloses(t *testing.T) {
	s := NewStore()
	preds := []Prediction{{Top5: []Alternative{{Label: "A", Confidence: 0.6}}, Confidence: 0.6}}
	s.ApplyPredictions(s.NextSeq(), preds)

	if s.ApplyPredictions(s.NextSeq(), nil) {
		t.Error("empty snapshot is a close, not an open")
	}
	if s.HasPending() {
		t.Error("prompt should close on empty snapshot")
	}

	// After the close, the same prediction may legitimately come back
	if !s.ApplyPredictions(s.NextSeq(), preds) {
		t.Error("prompt should reopen after an intervening close")
	}
}

func TestResetTransientWipesWordsAndPrompt(t *testing.T) {
	s := NewStore()
	s.ApplyWords(s.NextSeq(), []Word{{ID: 0, Word: "HELLO", Confidence: 0.9}})
	preds := []Prediction{{Top5: []Alternative{{Label: "A", Confidence: 0.6}}, Confidence: 0.6}}
	seqBefore := s.NextSeq()
	s.ApplyPredictions(seqBefore, preds)

	s.ResetTransient()
	if s.HasPending() {
		t.Fatal("prompt survived the reset")
	}
	if s.Text() != "" {
		t.Errorf("Text = %q, want empty after reset", s.Text())
	}

	// Responses fetched before the reset must not resurrect anything
	if s.ApplyPredictions(seqBefore, preds) {
		t.Error("pre-reset snapshot reopened the prompt")
	}
	if s.ApplyWords(seqBefore, []Word{{ID: 0, Word: "STALE"}}) {
		t.Error("pre-reset snapshot restored the word list")
	}
	// The next cycle's snapshot is authoritative again
	if !s.ApplyPredictions(s.NextSeq(), preds) {
		t.Error("fresh snapshot rejected after reset")
	}
}

func TestPendingReturnsCopy(t *testing.T) {
	s := NewStore()
	preds := []Prediction{{Top5: []Alternative{{Label: "A", Confidence: 0.6}}, Confidence: 0.6}}
	s.ApplyPredictions(s.NextSeq(), preds)

	p := s.Pending()
	p.Confidence = 0.99
	if s.Pending().Confidence != 0.6 {
		t.Error("Pending exposed internal state")
	}
}

func TestWordsReturnsCopy(t *testing.T) {
	s := NewStore()
	s.ApplyWords(s.NextSeq(), []Word{{ID: 0, Word: "HELLO", Confidence: 0.9}})

	words := s.Words()
	words[0].Word = "MUTATED"
	if !reflect.DeepEqual(s.Words(), []Word{{ID: 0, Word: "HELLO", Confidence: 0.9}}) {
		t.Error("Words exposed internal state")
	}
}
