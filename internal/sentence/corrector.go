package sentence

import (
	"context"
	"fmt"

	"github.com/auslanlive/auslan-client/internal/diaglog"
)

// Backend is the slice of the recognition API the corrector writes to.
type Backend interface {
	SelectWord(ctx context.Context, word string) error
	SkipPrediction(ctx context.Context) error
	ReplaceWord(ctx context.Context, wordID int, newWord string) error
	ClearSentence(ctx context.Context) error
}

// Corrector applies user corrections: it updates the local store
// optimistically, then writes the correction to the backend. Backend
// failures are returned for the caller to surface; they are never retried,
// and the optimistic state stands until the next authoritative poll.
type Corrector struct {
	store   *Store
	backend Backend
	logger  *diaglog.Logger
}

// NewCorrector wires a store to the backend client.
func NewCorrector(store *Store, backend Backend) *Corrector {
	return &Corrector{store: store, backend: backend, logger: diaglog.NewNoOp()}
}

// SetLogger injects a diaglog.Logger.
func (c *Corrector) SetLogger(l *diaglog.Logger) {
	if l != nil {
		c.logger = l
	}
}

// SelectWord resolves the open prompt with the chosen label.
func (c *Corrector) SelectWord(ctx context.Context, label string) error {
	if !c.store.HasPending() {
		return fmt.Errorf("no pending prediction to resolve")
	}
	c.store.clearPendingLocal()
	c.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentSentence,
		Event:     diaglog.EventPromptResolved,
		Payload:   map[string]interface{}{"word": label},
	})
	if err := c.backend.SelectWord(ctx, label); err != nil {
		return fmt.Errorf("select word: %w", err)
	}
	return nil
}

// SkipPrediction dismisses the open prompt without adding a word.
func (c *Corrector) SkipPrediction(ctx context.Context) error {
	if !c.store.HasPending() {
		return fmt.Errorf("no pending prediction to skip")
	}
	c.store.clearPendingLocal()
	c.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentSentence,
		Event:     diaglog.EventPromptSkipped,
	})
	if err := c.backend.SkipPrediction(ctx); err != nil {
		return fmt.Errorf("skip prediction: %w", err)
	}
	return nil
}

// ReplaceWord swaps a recognized word for one of its alternatives.
func (c *Corrector) ReplaceWord(ctx context.Context, wordID int, newWord string) error {
	if !c.store.replaceWordLocal(wordID, newWord) {
		return fmt.Errorf("no word with id %d", wordID)
	}
	c.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentSentence,
		Event:     diaglog.EventWordReplaced,
		Payload:   map[string]interface{}{"word_id": wordID, "new_word": newWord},
	})
	if err := c.backend.ReplaceWord(ctx, wordID, newWord); err != nil {
		return fmt.Errorf("replace word %d: %w", wordID, err)
	}
	return nil
}

// Clear wipes the sentence on both sides.
func (c *Corrector) Clear(ctx context.Context) error {
	c.store.clearAllLocal()
	c.logger.Log(diaglog.LogEntry{
		Component: diaglog.ComponentSentence,
		Event:     diaglog.EventSentenceCleared,
	})
	if err := c.backend.ClearSentence(ctx); err != nil {
		return fmt.Errorf("clear sentence: %w", err)
	}
	return nil
}
