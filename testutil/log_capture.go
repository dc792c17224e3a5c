package testutil

import (
	"bytes"
	"io"
	"log"
	"strings"
	"sync"
)

// LogCapture captures log output for testing
type LogCapture struct {
	buf      bytes.Buffer
	mu       sync.Mutex
	original io.Writer
}

// NewLogCapture creates a new log capture instance
func NewLogCapture() *LogCapture {
	lc := &LogCapture{
		original: log.Writer(),
	}
	return lc
}

// Start begins capturing log output
func (lc *LogCapture) Start() {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Redirect log output to our buffer
	log.SetOutput(&syncWriter{lc: lc})
}

// Stop restores original log output
func (lc *LogCapture) Stop() {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	log.SetOutput(lc.original)
}

// String returns all captured log output
func (lc *LogCapture) String() string {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.buf.String()
}

// Reset clears the capture buffer
func (lc *LogCapture) Reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.buf.Reset()
}

// Contains checks if the log output contains the given substring
func (lc *LogCapture) Contains(substr string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return strings.Contains(lc.buf.String(), substr)
}

// Count returns the number of times a substring appears in the log
func (lc *LogCapture) Count(substr string) int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return strings.Count(lc.buf.String(), substr)
}

// Lines returns all captured log lines
func (lc *LogCapture) Lines() []string {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	content := lc.buf.String()
	if content == "" {
		return []string{}
	}

	return strings.Split(strings.TrimSpace(content), "\n")
}

// syncWriter serializes writes from logging goroutines into the buffer
type syncWriter struct {
	lc *LogCapture
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.lc.mu.Lock()
	defer w.lc.mu.Unlock()
	return w.lc.buf.Write(p)
}
