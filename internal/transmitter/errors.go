package transmitter

import (
	"errors"
	"fmt"
)

// ErrUploadInFlight is returned by Force when a ticker upload is already
// running.
var ErrUploadInFlight = errors.New("upload already in flight")

// NotEnoughFramesError reports a manual predict attempted before the buffer
// held enough frames.
type NotEnoughFramesError struct {
	Have int
	Need int
}

func (e *NotEnoughFramesError) Error() string {
	return fmt.Sprintf("not enough frames for predict: have %d, need %d", e.Have, e.Need)
}
