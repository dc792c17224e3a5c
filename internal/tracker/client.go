package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/keypoint"
)

// Sentinel errors reported by the tracker sidecar when it cannot open the
// camera. Callers match these with errors.Is.
var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNoDevice         = errors.New("no camera device available")
)

// Stats summarizes frame traffic since Start.
type Stats struct {
	FramesSeen      uint64    `json:"frames_seen"`
	FramesWithHands uint64    `json:"frames_with_hands"`
	LastFrameAt     time.Time `json:"last_frame_at"`
}

// Client talks to the landmark-tracker sidecar over WebSocket. The sidecar
// owns the camera and the hand-landmark model; the client only turns the
// stream on and off and receives landmark frames.
type Client struct {
	url       string
	conn      *websocket.Conn
	mu        sync.RWMutex
	connected bool
	running   bool

	logger   *diaglog.Logger
	loggerMu sync.RWMutex

	onFrame        func(frame *keypoint.Frame)
	onDisconnected func()

	stats   Stats
	statsMu sync.RWMutex

	stopChan chan struct{}
	ackChan  chan ackMessage
}

// Wire messages. The sidecar speaks newline-free JSON text frames with a
// "type" discriminator.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type controlMessage struct {
	Action string `json:"action"`
}

type ackMessage struct {
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

const (
	msgFrame = "frame"
	msgAck   = "ack"
	msgError = "error"

	actionStart = "start"
	actionStop  = "stop"
)

// Sidecar error codes mapped to sentinel errors.
const (
	codePermissionDenied = "permission_denied"
	codeNoDevice         = "no_device"
)

const ackTimeout = 10 * time.Second

// NewClient creates a tracker client for the given WebSocket URL.
func NewClient(url string) *Client {
	return &Client{
		url:      url,
		stopChan: make(chan struct{}),
		ackChan:  make(chan ackMessage, 1),
	}
}

// Connect dials the sidecar and starts the read loop. It does not start the
// camera; call Start for that. Connection loss is reported through the
// OnDisconnected callback and is never retried automatically.
func (c *Client) Connect() error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return fmt.Errorf("already connected")
	}
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to tracker at %s: %w", c.url, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.log(diaglog.LogEntry{
		Event:   diaglog.EventWSConnect,
		Payload: map[string]interface{}{"url": c.url},
	})

	go c.readMessages()
	return nil
}

// Start asks the sidecar to open the camera and begin streaming frames.
// Camera failures surface as ErrPermissionDenied or ErrNoDevice.
func (c *Client) Start() error {
	if err := c.sendControl(actionStart); err != nil {
		c.log(diaglog.LogEntry{
			Event:   diaglog.EventCameraError,
			Payload: map[string]interface{}{"error": err.Error()},
		})
		return err
	}

	c.mu.Lock()
	c.running = true
	c.mu.Unlock()

	c.statsMu.Lock()
	c.stats = Stats{}
	c.statsMu.Unlock()

	c.log(diaglog.LogEntry{Event: diaglog.EventCameraStart})
	return nil
}

// Stop asks the sidecar to release the camera. Frames already in flight may
// still be delivered after Stop returns.
func (c *Client) Stop() error {
	if err := c.sendControl(actionStop); err != nil {
		return err
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.log(diaglog.LogEntry{Event: diaglog.EventCameraStop})
	return nil
}

// sendControl sends a control action and waits for the sidecar's ack.
func (c *Client) sendControl(action string) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return fmt.Errorf("not connected")
	}
	conn := c.conn
	c.mu.RUnlock()

	env := envelope{Type: "control"}
	env.Data, _ = json.Marshal(controlMessage{Action: action})

	// Drain a stale ack left over from a timed-out request.
	select {
	case <-c.ackChan:
	default:
	}

	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("send %s: %w", action, err)
	}

	select {
	case ack := <-c.ackChan:
		if !ack.OK {
			return ackError(action, ack)
		}
		return nil
	case <-c.stopChan:
		return fmt.Errorf("connection closed")
	case <-time.After(ackTimeout):
		return fmt.Errorf("timeout waiting for %s ack", action)
	}
}

// ackError maps sidecar error codes to sentinel errors.
func ackError(action string, ack ackMessage) error {
	switch ack.Code {
	case codePermissionDenied:
		return fmt.Errorf("%s: %w", action, ErrPermissionDenied)
	case codeNoDevice:
		return fmt.Errorf("%s: %w", action, ErrNoDevice)
	default:
		return fmt.Errorf("%s rejected by tracker (code: %s): %s", action, ack.Code, ack.Detail)
	}
}

// readMessages continuously reads and dispatches sidecar messages.
func (c *Client) readMessages() {
	defer func() {
		c.disconnect()
		if c.onDisconnected != nil {
			c.onDisconnected()
		}
	}()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			return
		}

		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseNormalClosure {
				c.log(diaglog.LogEntry{
					Event:   diaglog.EventWSDisconnect,
					Payload: map[string]interface{}{"close_code": closeErr.Code, "text": closeErr.Text},
				})
			}
			return
		}

		switch env.Type {
		case msgFrame:
			var frame keypoint.Frame
			if err := json.Unmarshal(env.Data, &frame); err != nil {
				log.Printf("Warning: malformed frame from tracker: %v", err)
				continue
			}
			frame.CapturedAt = time.Now()
			c.recordFrame(&frame)
			if c.onFrame != nil {
				c.onFrame(&frame)
			}

		case msgAck:
			var ack ackMessage
			if err := json.Unmarshal(env.Data, &ack); err != nil {
				continue
			}
			select {
			case c.ackChan <- ack:
			default:
			}

		case msgError:
			// Async error while streaming (camera unplugged mid-session).
			var ack ackMessage
			if err := json.Unmarshal(env.Data, &ack); err == nil {
				c.log(diaglog.LogEntry{
					Event:   diaglog.EventCameraError,
					Payload: map[string]interface{}{"code": ack.Code, "detail": ack.Detail},
				})
			}
			c.mu.Lock()
			c.running = false
			c.mu.Unlock()
		}
	}
}

func (c *Client) recordFrame(frame *keypoint.Frame) {
	c.statsMu.Lock()
	c.stats.FramesSeen++
	if frame.HasHands() {
		c.stats.FramesWithHands++
	}
	c.stats.LastFrameAt = frame.CapturedAt
	c.statsMu.Unlock()
}

// disconnect closes the WebSocket connection.
func (c *Client) disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.log(diaglog.LogEntry{
			Event:   diaglog.EventWSDisconnect,
			Payload: map[string]interface{}{"url": c.url},
		})
		if err := c.conn.Close(); err != nil {
			log.Printf("Warning: failed to close tracker connection: %v", err)
		}
		c.conn = nil
	}
	c.connected = false
	c.running = false
}

// Close gracefully shuts down the connection and the read loop.
func (c *Client) Close() {
	c.mu.Lock()
	select {
	case <-c.stopChan:
	default:
		close(c.stopChan)
	}
	c.mu.Unlock()
	c.disconnect()
}

// SetLogger injects a diaglog.Logger. Passing nil disables structured logging.
func (c *Client) SetLogger(l *diaglog.Logger) {
	c.loggerMu.Lock()
	c.logger = l
	c.loggerMu.Unlock()
}

func (c *Client) log(entry diaglog.LogEntry) {
	c.loggerMu.RLock()
	l := c.logger
	c.loggerMu.RUnlock()
	if l == nil {
		return
	}
	if entry.Component == "" {
		entry.Component = diaglog.ComponentTracker
	}
	l.Log(entry)
}

// OnFrame registers the callback invoked for every landmark frame. Must be
// set before Connect; the read loop calls it without additional locking.
func (c *Client) OnFrame(handler func(frame *keypoint.Frame)) {
	c.onFrame = handler
}

// OnDisconnected registers callback for disconnection events.
func (c *Client) OnDisconnected(handler func()) {
	c.onDisconnected = handler
}

// IsConnected returns current connection status.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// IsRunning reports whether the camera stream is active.
func (c *Client) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// Stats returns a copy of the current frame counters.
func (c *Client) Stats() Stats {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()
	return c.stats
}
