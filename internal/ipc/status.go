package ipc

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/auslanlive/auslan-client/internal/api"
	"github.com/auslanlive/auslan-client/internal/modeswap"
	"github.com/auslanlive/auslan-client/internal/sentence"
	"github.com/auslanlive/auslan-client/internal/tracker"
	"github.com/auslanlive/auslan-client/internal/translate"
)

// StatusSnapshot represents the complete client state at a point in time
type StatusSnapshot struct {
	Mode             modeswap.Mode        `json:"mode"`                        // Current translation direction
	Phase            modeswap.Phase       `json:"phase"`                       // idle or swapping
	TrackerConnected bool                 `json:"tracker_connected"`           // Tracker sidecar WebSocket up
	CameraRunning    bool                 `json:"camera_running"`              // Camera stream active
	TrackerStats     tracker.Stats        `json:"tracker_stats"`               // Frame counters since camera start
	Transmitting     bool                 `json:"transmitting"`                // Frame uploads enabled
	BufferedFrames   int                  `json:"buffered_frames"`             // Frames currently buffered
	Words            []sentence.Word      `json:"words"`                       // Recognized word list
	SentenceText     string               `json:"sentence_text"`               // Words joined for display
	Pending          *sentence.Prediction `json:"pending,omitempty"`           // Open disambiguation prompt
	Translation      string               `json:"translation"`                 // Latest full-sentence translation
	GemFlag          bool                 `json:"gem_flag"`                    // Language-model post-processing ran
	ProcessingPaused bool                 `json:"processing_paused"`           // Backend recognition paused
	FrameStatus      api.FrameStatus      `json:"frame_status"`                // Backend's frame window view
	LastTranslation  *translate.Result    `json:"last_translation,omitempty"`  // Latest text-to-video result
	AlwaysGrammar    bool                 `json:"always_show_grammar"`         // Grammar display preference
	PollSeq          uint64               `json:"poll_seq"`                    // Latest poll cycle sequence
	PollErrors       map[string]string    `json:"poll_errors,omitempty"`       // Per-endpoint poll failures
	LastError        string               `json:"last_error,omitempty"`        // Last command error message
	Timestamp        time.Time            `json:"timestamp"`                   // Snapshot time
}

// StatusPath returns the path of the status handoff file.
func StatusPath() string {
	return filepath.Join(cacheDir(), "status.json")
}

// WriteStatus persists StatusSnapshot to ~/.cache/auslanlive/status.json using atomic write
func WriteStatus(status *StatusSnapshot) error {
	if err := os.MkdirAll(cacheDir(), 0755); err != nil {
		return err
	}
	return atomicWriteJSON(StatusPath(), status)
}

// ReadStatus loads StatusSnapshot from ~/.cache/auslanlive/status.json
func ReadStatus() (*StatusSnapshot, error) {
	data, err := os.ReadFile(StatusPath())
	if err != nil {
		return nil, err
	}

	var status StatusSnapshot
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// atomicWriteJSON writes data to a file atomically using temp file + rename
func atomicWriteJSON(path string, data interface{}) error {
	// Create temp file in same directory
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "status-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	// Ensure cleanup on error
	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	// Write JSON with indentation for readability
	encoder := json.NewEncoder(tmpFile)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return err
	}

	// Sync to disk before rename
	if err := tmpFile.Sync(); err != nil {
		return err
	}

	// Close file before rename
	if err := tmpFile.Close(); err != nil {
		return err
	}
	tmpFile = nil // Prevent defer cleanup

	// Atomic rename
	return os.Rename(tmpPath, path)
}
