package transmitter

import (
	"context"
	"sync"
	"time"

	"github.com/auslanlive/auslan-client/internal/api"
	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/framebuffer"
	"github.com/auslanlive/auslan-client/internal/keypoint"
)

const (
	// DefaultInterval is how often the buffered window is shipped upstream.
	DefaultInterval = 2 * time.Second

	// MinUploadFrames is the smallest window worth uploading on the ticker.
	MinUploadFrames = 24

	// MinForceFrames is the smallest window accepted for a manual predict.
	MinForceFrames = 32
)

// Uploader is the backend surface the transmitter needs. *api.Client
// satisfies it.
type Uploader interface {
	UploadRecording(ctx context.Context, frames []keypoint.Frame) (*api.RecordingResult, error)
	SendKeypoints(ctx context.Context, frame *keypoint.Frame) error
	ForcePredict(ctx context.Context) error
}

// Transmitter moves landmark frames from the capture buffer to the backend:
// per-frame keypoints fire-and-forget, and the accumulated window on a fixed
// ticker once enough frames are held. Failed uploads keep their frames; the
// next tick tries the same window plus whatever arrived since. There are no
// automatic retries beyond that natural cadence.
type Transmitter struct {
	buffer   *framebuffer.Buffer
	uploader Uploader

	interval  time.Duration
	minUpload int
	minForce  int

	mu       sync.Mutex
	inFlight bool
	paused   bool

	onResult func(*api.RecordingResult)

	logger   *diaglog.Logger
	loggerMu sync.RWMutex
}

// New creates a transmitter over the given buffer and uploader.
func New(buffer *framebuffer.Buffer, uploader Uploader) *Transmitter {
	return &Transmitter{
		buffer:    buffer,
		uploader:  uploader,
		interval:  DefaultInterval,
		minUpload: MinUploadFrames,
		minForce:  MinForceFrames,
	}
}

// SetInterval overrides the upload cadence. Call before Run.
func (t *Transmitter) SetInterval(d time.Duration) {
	t.interval = d
}

// SetThresholds overrides the upload and force minimums. Call before Run.
func (t *Transmitter) SetThresholds(minUpload, minForce int) {
	t.minUpload = minUpload
	t.minForce = minForce
}

// OnResult registers a callback invoked with each successful upload's
// classification result.
func (t *Transmitter) OnResult(handler func(*api.RecordingResult)) {
	t.onResult = handler
}

// SetLogger injects a diaglog.Logger. Passing nil disables structured logging.
func (t *Transmitter) SetLogger(l *diaglog.Logger) {
	t.loggerMu.Lock()
	t.logger = l
	t.loggerMu.Unlock()
}

func (t *Transmitter) log(entry diaglog.LogEntry) {
	t.loggerMu.RLock()
	l := t.logger
	t.loggerMu.RUnlock()
	if l == nil {
		return
	}
	if entry.Component == "" {
		entry.Component = diaglog.ComponentTransmitter
	}
	l.Log(entry)
}

// HandleFrame ingests one frame from the tracker. Frames without hands are
// dropped; accepted frames also go upstream immediately as a single
// fire-and-forget keypoint post.
func (t *Transmitter) HandleFrame(frame *keypoint.Frame) {
	if frame == nil || !frame.HasHands() {
		return
	}
	if !t.buffer.Append(*frame) {
		return
	}

	go func(f keypoint.Frame) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		// Best effort; the window upload carries the same data.
		_ = t.uploader.SendKeypoints(ctx, &f)
	}(*frame)
}

// Run drives the upload ticker until ctx is cancelled.
func (t *Transmitter) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tryUpload(ctx)
		}
	}
}

// tryUpload ships the buffered window when it is big enough. Only one upload
// is in flight at a time; a tick that lands mid-upload is skipped.
func (t *Transmitter) tryUpload(ctx context.Context) {
	t.mu.Lock()
	if t.inFlight || t.paused {
		t.mu.Unlock()
		return
	}
	t.inFlight = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight = false
		t.mu.Unlock()
	}()

	window := t.buffer.Snapshot()
	if len(window) < t.minUpload {
		return
	}
	// Ticker failures are logged only; the next tick retries the window
	// plus whatever arrived since.
	_ = t.upload(ctx, window)
}

// upload posts one window and discards it from the buffer only on success.
func (t *Transmitter) upload(ctx context.Context, window []keypoint.Frame) error {
	t.log(diaglog.LogEntry{
		Event:   diaglog.EventUploadStart,
		Payload: map[string]interface{}{"frames": len(window)},
	})

	result, err := t.uploader.UploadRecording(ctx, window)
	if err != nil {
		t.log(diaglog.LogEntry{
			Event:   diaglog.EventUploadFailed,
			Payload: map[string]interface{}{"frames": len(window), "error": err.Error()},
		})
		return err
	}

	t.buffer.Discard(len(window))

	payload := map[string]interface{}{"frames": len(window)}
	if result != nil {
		payload["top_1"] = result.Top1.Label
		payload["confidence"] = result.Top1.Confidence
	}
	t.log(diaglog.LogEntry{Event: diaglog.EventUploadSuccess, Payload: payload})

	if t.onResult != nil && result != nil {
		t.onResult(result)
	}
	return nil
}

// Force uploads the current window and asks the backend to predict now,
// regardless of the ticker. Requires at least MinForceFrames buffered.
func (t *Transmitter) Force(ctx context.Context) error {
	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return ErrUploadInFlight
	}
	t.inFlight = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight = false
		t.mu.Unlock()
	}()

	window := t.buffer.Snapshot()
	if len(window) < t.minForce {
		return &NotEnoughFramesError{Have: len(window), Need: t.minForce}
	}

	// A failed window upload surfaces to the caller; predicting over a
	// window the backend never received would be meaningless.
	if err := t.upload(ctx, window); err != nil {
		return err
	}

	t.log(diaglog.LogEntry{Event: diaglog.EventForcePredict})
	if err := t.uploader.ForcePredict(ctx); err != nil {
		return err
	}
	return nil
}

// Pause stops buffer ingestion and ticker uploads without dropping the
// window. Used while a disambiguation prompt is open.
func (t *Transmitter) Pause() {
	t.mu.Lock()
	t.paused = true
	t.mu.Unlock()
	t.buffer.PauseTransmission()
}

// Resume re-enables ingestion and uploads after Pause.
func (t *Transmitter) Resume() {
	t.mu.Lock()
	t.paused = false
	t.mu.Unlock()
	t.buffer.ResumeTransmission()
}

// Paused reports whether the transmitter is currently paused.
func (t *Transmitter) Paused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.paused
}
