// Package keypoint defines the hand-landmark data model shared between the
// tracker sidecar, the frame buffer, and the recognition backend.
package keypoint

import "time"

// HandLandmarkCount is the number of joints per hand in the tracker's
// topology (wrist + 4 joints per finger).
const HandLandmarkCount = 21

// Landmark is one tracked joint in normalized image coordinates. X and Y are
// in [0,1] relative to the capture frame; Z is depth relative to the wrist.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility,omitempty"`
}

// Frame is one capture tick: the landmark sets for zero, one, or two hands.
// A nil hand slice means that hand was not detected. The JSON shape matches
// both the tracker's frame events and the backend's /keypoints payload.
type Frame struct {
	LeftHand  []Landmark `json:"leftHand"`
	RightHand []Landmark `json:"rightHand"`

	// CapturedAt is local receive time; not sent to the backend.
	CapturedAt time.Time `json:"-"`
}

// HasHands reports whether at least one hand was detected in this frame.
func (f *Frame) HasHands() bool {
	return len(f.LeftHand) > 0 || len(f.RightHand) > 0
}

// HandCount returns how many hands were detected (0, 1, or 2).
func (f *Frame) HandCount() int {
	n := 0
	if len(f.LeftHand) > 0 {
		n++
	}
	if len(f.RightHand) > 0 {
		n++
	}
	return n
}
