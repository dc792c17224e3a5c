package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/auslanlive/auslan-client/internal/keypoint"
	"github.com/auslanlive/auslan-client/testutil"
)

func newConnectedClient(t *testing.T) (*Client, *testutil.MockTrackerServer) {
	t.Helper()
	mock := testutil.NewMockTracker()
	if err := mock.Start(); err != nil {
		t.Fatalf("start mock tracker: %v", err)
	}
	t.Cleanup(func() { _ = mock.Stop() })

	client := NewClient(mock.URL())
	t.Cleanup(client.Close)
	return client, mock
}

func TestConnectAndStartStop(t *testing.T) {
	client, mock := newConnectedClient(t)

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !client.IsConnected() {
		t.Error("expected IsConnected after Connect")
	}
	if client.IsRunning() {
		t.Error("camera should not run before Start")
	}

	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !client.IsRunning() {
		t.Error("expected IsRunning after Start")
	}
	if !mock.Streaming() {
		t.Error("mock should report streaming after start ack")
	}

	if err := client.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if client.IsRunning() {
		t.Error("camera should stop after Stop")
	}
}

func TestStartMapsErrorCodes(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"permission_denied", ErrPermissionDenied},
		{"no_device", ErrNoDevice},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client, mock := newConnectedClient(t)
			mock.SetFailureMode(testutil.TrackerModeReject)
			mock.SetErrorCode(tt.code)

			if err := client.Connect(); err != nil {
				t.Fatalf("Connect: %v", err)
			}
			err := client.Start()
			if !errors.Is(err, tt.want) {
				t.Errorf("Start err = %v, want %v", err, tt.want)
			}
			if client.IsRunning() {
				t.Error("camera must not be running after rejected start")
			}
		})
	}
}

func TestFrameDelivery(t *testing.T) {
	client, mock := newConnectedClient(t)

	frames := make(chan *keypoint.Frame, 4)
	client.OnFrame(func(f *keypoint.Frame) { frames <- f })

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// One frame with a hand, one without
	withHand := map[string]interface{}{
		"leftHand": []map[string]float64{{"x": 0.5, "y": 0.5, "z": 0.0}},
	}
	if err := mock.EmitFrame(withHand); err != nil {
		t.Fatalf("EmitFrame: %v", err)
	}
	if err := mock.EmitFrame(map[string]interface{}{}); err != nil {
		t.Fatalf("EmitFrame: %v", err)
	}

	var got []*keypoint.Frame
	for len(got) < 2 {
		select {
		case f := <-frames:
			got = append(got, f)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for frames, got %d", len(got))
		}
	}

	if !got[0].HasHands() {
		t.Error("first frame should have a hand")
	}
	if got[1].HasHands() {
		t.Error("second frame should be empty")
	}
	if got[0].CapturedAt.IsZero() {
		t.Error("CapturedAt should be stamped on receipt")
	}

	stats := client.Stats()
	if stats.FramesSeen != 2 || stats.FramesWithHands != 1 {
		t.Errorf("stats = %+v, want 2 seen / 1 with hands", stats)
	}
}

func TestDisconnectCallback(t *testing.T) {
	client, mock := newConnectedClient(t)

	disconnected := make(chan struct{}, 1)
	client.OnDisconnected(func() { disconnected <- struct{}{} })

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	_ = mock.Stop()

	select {
	case <-disconnected:
	case <-time.After(2 * time.Second):
		t.Fatal("disconnect callback never fired")
	}
	if client.IsConnected() {
		t.Error("IsConnected should be false after server close")
	}
}

func TestMalformedFrameIsLoggedAndSkipped(t *testing.T) {
	client, mock := newConnectedClient(t)

	frames := make(chan *keypoint.Frame, 1)
	client.OnFrame(func(f *keypoint.Frame) { frames <- f })

	capture := testutil.NewLogCapture()
	capture.Start()
	defer capture.Stop()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := mock.EmitFrame("not an object"); err != nil {
		t.Fatalf("EmitFrame: %v", err)
	}
	if err := mock.EmitFrame(map[string]interface{}{}); err != nil {
		t.Fatalf("EmitFrame: %v", err)
	}

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("valid frame after malformed one never arrived")
	}

	if !capture.Contains("malformed frame") {
		t.Errorf("expected a warning for the malformed frame, log: %s", capture.String())
	}
}

func TestAsyncErrorStopsRunning(t *testing.T) {
	client, mock := newConnectedClient(t)

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := client.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := mock.EmitError("no_device", "camera unplugged"); err != nil {
		t.Fatalf("EmitError: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for client.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("client still running after async camera error")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
