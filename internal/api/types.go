package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/auslanlive/auslan-client/internal/sentence"
)

// RecordingResult is the classifier's answer to an uploaded frame window.
type RecordingResult struct {
	Top1 sentence.Alternative   `json:"top_1"`
	Top5 []sentence.Alternative `json:"top_5"`
}

// FrameStatus is the backend's progress metadata for the current recording
// window. Purely advisory; recomputed server-side and polled.
type FrameStatus struct {
	FramesCollected int  `json:"frames_collected"`
	MinFrames       int  `json:"min_frames"`
	ReadyToPredict  bool `json:"ready_to_predict"`
}

// T2SResult is the grammar endpoint's parse of an English sentence into
// Auslan word order. The backend returns either a plain string or an ordered
// token list; IsList records which, because the two forms derive different
// video filenames.
type T2SResult struct {
	Raw    string
	Tokens []string
	IsList bool
}

// GrammarText returns the parse as display text.
func (r *T2SResult) GrammarText() string {
	if r.IsList {
		return strings.Join(r.Tokens, " ")
	}
	return r.Raw
}

// t2sMessage decodes the string-or-array "message" field.
type t2sMessage struct {
	Message json.RawMessage `json:"message"`
}

func parseT2SMessage(raw json.RawMessage) (*T2SResult, error) {
	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err == nil {
		return &T2SResult{Tokens: tokens, IsList: true}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &T2SResult{Raw: s}, nil
	}
	return nil, fmt.Errorf("t2s message is neither string nor array: %s", truncate(raw, 120))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
