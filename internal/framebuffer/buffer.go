// Package framebuffer holds captured keypoint frames between the tracker
// callback (producer) and the periodic uploader (consumer). The buffer is a
// bounded FIFO: once capacity is reached the oldest frame is evicted.
package framebuffer

import (
	"sync"

	"github.com/auslanlive/auslan-client/internal/keypoint"
)

// DefaultCapacity matches the backend's maximum recognition window
// (10s at 30fps).
const DefaultCapacity = 300

// State is the ingestion gate of the buffer.
type State int

const (
	// Stopped means Append is a no-op and the buffer holds nothing useful.
	Stopped State = iota
	// Ingesting means frames are accepted.
	Ingesting
	// Paused means frames are dropped but the buffered window is kept
	// (used while a disambiguation prompt is open).
	Paused
)

// Buffer is safe for one producer and one consumer goroutine.
type Buffer struct {
	mu       sync.Mutex
	frames   []keypoint.Frame
	capacity int
	state    State
	evicted  uint64
}

// New returns an empty stopped buffer. capacity <= 0 selects DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		frames:   make([]keypoint.Frame, 0, capacity),
		capacity: capacity,
		state:    Stopped,
	}
}

// StartTransmission clears any previous window and enables ingestion.
func (b *Buffer) StartTransmission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = b.frames[:0]
	b.state = Ingesting
}

// PauseTransmission suspends ingestion without clearing the window.
func (b *Buffer) PauseTransmission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Ingesting {
		b.state = Paused
	}
}

// ResumeTransmission re-enables ingestion after a pause.
func (b *Buffer) ResumeTransmission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Paused {
		b.state = Ingesting
	}
}

// StopTransmission disables ingestion. The window is kept until the next
// StartTransmission so an in-flight upload can still drain it.
func (b *Buffer) StopTransmission() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Stopped
}

// Append adds a frame to the window if the buffer is ingesting. When the
// buffer is full the oldest frame is evicted first. Returns true if the
// frame was stored.
func (b *Buffer) Append(f keypoint.Frame) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Ingesting {
		return false
	}
	if len(b.frames) >= b.capacity {
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:len(b.frames)-1]
		b.evicted++
	}
	b.frames = append(b.frames, f)
	return true
}

// Len returns the number of buffered frames.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// State returns the current ingestion gate.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Evicted returns how many frames were dropped to the capacity bound since
// the buffer was created.
func (b *Buffer) Evicted() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.evicted
}

// Snapshot returns a copy of the buffered window in FIFO order. The window
// itself is untouched; the caller discards it with Discard after a
// successful upload.
func (b *Buffer) Snapshot() []keypoint.Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]keypoint.Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

// Discard drops the oldest n frames. Frames appended after the snapshot that
// was uploaded stay buffered for the next window.
func (b *Buffer) Discard(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n >= len(b.frames) {
		b.frames = b.frames[:0]
		return
	}
	copy(b.frames, b.frames[n:])
	b.frames = b.frames[:len(b.frames)-n]
}
