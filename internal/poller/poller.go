package poller

import (
	"context"
	"sync"
	"time"

	"github.com/auslanlive/auslan-client/internal/api"
	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/sentence"
)

// DefaultInterval is the backend polling cadence.
const DefaultInterval = 750 * time.Millisecond

// Backend is the read-only backend surface the poller needs. *api.Client
// satisfies it.
type Backend interface {
	SignToText(ctx context.Context) (string, error)
	GemFlag(ctx context.Context) (bool, error)
	SentenceWords(ctx context.Context) ([]sentence.Word, error)
	PendingPredictions(ctx context.Context) ([]sentence.Prediction, error)
	ProcessingStatus(ctx context.Context) (bool, error)
	FrameStatus(ctx context.Context) (*api.FrameStatus, error)
}

// Endpoint names used for in-flight bookkeeping and poll_error payloads.
const (
	epTranslation = "sign_to_text"
	epGemFlag     = "gem_flag"
	epWords       = "sentence_words"
	epPredictions = "pending_predictions"
	epProcessing  = "processing_status"
	epFrames      = "frame_status"
)

// Poller is the single coordinator for all backend reads. Each tick takes a
// fresh sequence number from the sentence store and fans out to the
// endpoints; an endpoint whose previous request is still in flight skips the
// tick rather than stacking requests. Errors are logged and the endpoint is
// simply tried again next tick.
type Poller struct {
	backend Backend
	store   *sentence.Store

	interval time.Duration

	mu         sync.Mutex
	inFlight   map[string]bool
	active     bool
	seq        uint64
	lastErr    map[string]string
	cycleCount uint64

	translation      string
	gemFlag          bool
	frameStatus      api.FrameStatus
	processingPaused bool

	onPromptOpened func()

	logger   *diaglog.Logger
	loggerMu sync.RWMutex
}

// New creates a poller over the given backend and sentence store.
func New(backend Backend, store *sentence.Store) *Poller {
	return &Poller{
		backend:  backend,
		store:    store,
		interval: DefaultInterval,
		inFlight: make(map[string]bool),
		lastErr:  make(map[string]string),
	}
}

// SetInterval overrides the polling cadence. Call before Run.
func (p *Poller) SetInterval(d time.Duration) {
	p.interval = d
}

// OnPromptOpened registers a callback fired when a polling cycle surfaces a
// new disambiguation prompt. Fired at most once per prompt.
func (p *Poller) OnPromptOpened(handler func()) {
	p.onPromptOpened = handler
}

// SetLogger injects a diaglog.Logger. Passing nil disables structured logging.
func (p *Poller) SetLogger(l *diaglog.Logger) {
	p.loggerMu.Lock()
	p.logger = l
	p.loggerMu.Unlock()
}

func (p *Poller) log(entry diaglog.LogEntry) {
	p.loggerMu.RLock()
	l := p.logger
	p.loggerMu.RUnlock()
	if l == nil {
		return
	}
	if entry.Component == "" {
		entry.Component = diaglog.ComponentPoller
	}
	l.Log(entry)
}

// SetActive toggles polling without stopping Run. An inactive poller ticks
// but queries nothing; used while the client is in text-to-video mode.
func (p *Poller) SetActive(active bool) {
	p.mu.Lock()
	p.active = active
	p.mu.Unlock()
}

// ResetCached drops the cached endpoint values and error states so a stale
// translation or frame window does not outlive a mode swap. Word and
// prediction responses still in flight are fenced by the store's sequence;
// a straggling translation response is overwritten on the next active cycle.
func (p *Poller) ResetCached() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.translation = ""
	p.gemFlag = false
	p.frameStatus = api.FrameStatus{}
	p.processingPaused = false
	p.lastErr = make(map[string]string)
}

// Run drives polling until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one polling cycle. Exposed for tests and for forced refreshes
// after a correction round-trip.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	if !p.active {
		p.mu.Unlock()
		return
	}
	seq := p.store.NextSeq()
	p.seq = seq
	p.cycleCount++
	cycle := p.cycleCount
	p.mu.Unlock()

	p.log(diaglog.LogEntry{
		Event:   diaglog.EventPollCycle,
		Seq:     seq,
		Payload: map[string]interface{}{"cycle": cycle},
	})

	p.dispatch(ctx, epWords, func(ctx context.Context) error {
		words, err := p.backend.SentenceWords(ctx)
		if err != nil {
			return err
		}
		p.store.ApplyWords(seq, words)
		return nil
	})

	// A prompt the user has not answered yet keeps its state; re-fetching
	// predictions mid-prompt would fight the optimistic resolution.
	if !p.store.HasPending() {
		p.dispatch(ctx, epPredictions, func(ctx context.Context) error {
			preds, err := p.backend.PendingPredictions(ctx)
			if err != nil {
				return err
			}
			opened := p.store.ApplyPredictions(seq, preds) && p.store.HasPending()
			if opened {
				p.log(diaglog.LogEntry{Event: diaglog.EventPromptOpened, Seq: seq})
				if p.onPromptOpened != nil {
					p.onPromptOpened()
				}
			}
			return nil
		})
	}

	p.dispatch(ctx, epTranslation, func(ctx context.Context) error {
		text, err := p.backend.SignToText(ctx)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.translation = text
		p.mu.Unlock()
		return nil
	})

	p.dispatch(ctx, epGemFlag, func(ctx context.Context) error {
		flag, err := p.backend.GemFlag(ctx)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.gemFlag = flag
		p.mu.Unlock()
		return nil
	})

	p.dispatch(ctx, epProcessing, func(ctx context.Context) error {
		paused, err := p.backend.ProcessingStatus(ctx)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.processingPaused = paused
		p.mu.Unlock()
		return nil
	})

	p.dispatch(ctx, epFrames, func(ctx context.Context) error {
		fs, err := p.backend.FrameStatus(ctx)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.frameStatus = *fs
		p.mu.Unlock()
		return nil
	})
}

// dispatch runs one endpoint query in its own goroutine unless the previous
// query for that endpoint has not returned yet.
func (p *Poller) dispatch(ctx context.Context, name string, fn func(ctx context.Context) error) {
	p.mu.Lock()
	if p.inFlight[name] {
		p.mu.Unlock()
		return
	}
	p.inFlight[name] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			p.inFlight[name] = false
			p.mu.Unlock()
		}()

		err := fn(ctx)

		p.mu.Lock()
		if err != nil {
			p.lastErr[name] = err.Error()
		} else {
			delete(p.lastErr, name)
		}
		p.mu.Unlock()

		if err != nil {
			p.log(diaglog.LogEntry{
				Event:   diaglog.EventPollError,
				Payload: map[string]interface{}{"endpoint": name, "error": err.Error()},
			})
		}
	}()
}

// Translation returns the latest full-sentence translation.
func (p *Poller) Translation() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.translation
}

// GemFlag reports whether the backend's language-model post-processing ran.
func (p *Poller) GemFlag() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gemFlag
}

// FrameStatus returns the backend's view of the frame window.
func (p *Poller) FrameStatus() api.FrameStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameStatus
}

// ProcessingPaused reports whether the backend has paused recognition.
func (p *Poller) ProcessingPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processingPaused
}

// Seq returns the sequence number of the most recent cycle.
func (p *Poller) Seq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq
}

// Errors returns a copy of the most recent per-endpoint error messages.
func (p *Poller) Errors() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.lastErr))
	for k, v := range p.lastErr {
		out[k] = v
	}
	return out
}
