package tracker

import "github.com/auslanlive/auslan-client/internal/keypoint"

// Session is the capture surface the rest of the client programs against.
// *Client satisfies it; tests substitute fakes.
type Session interface {
	Start() error
	Stop() error
	OnFrame(handler func(frame *keypoint.Frame))
	OnDisconnected(handler func())
	IsRunning() bool
	Stats() Stats
}

var _ Session = (*Client)(nil)
