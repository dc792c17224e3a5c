package testutil

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MockTrackerServer simulates the landmark-tracker sidecar for testing.
type MockTrackerServer struct {
	listener  net.Listener
	server    *http.Server
	conn      *websocket.Conn
	mode      string
	errorCode string
	mu        sync.Mutex
	connected bool
	streaming bool
}

// Failure modes define how the mock tracker behaves on control messages.
const (
	TrackerModeNormal     = "normal"
	TrackerModeReject     = "reject"
	TrackerModeTimeout    = "timeout"
	TrackerModeDisconnect = "disconnect"
)

var trackerUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewMockTracker creates a new mock tracker sidecar.
func NewMockTracker() *MockTrackerServer {
	return &MockTrackerServer{
		mode:      TrackerModeNormal,
		errorCode: "no_device",
	}
}

// Start begins listening on a dynamic port.
func (m *MockTrackerServer) Start() error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	m.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", m.handleWebSocket)

	m.server = &http.Server{Handler: mux}

	go func() {
		_ = m.server.Serve(m.listener)
	}()

	// Give server time to start
	time.Sleep(50 * time.Millisecond)

	return nil
}

// Stop gracefully shuts down the server.
func (m *MockTrackerServer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	if m.server != nil {
		_ = m.server.Close()
	}

	if m.listener != nil {
		_ = m.listener.Close()
	}

	m.connected = false
	return nil
}

// URL returns the server's WebSocket URL.
func (m *MockTrackerServer) URL() string {
	if m.listener == nil {
		return ""
	}
	return "ws://" + m.listener.Addr().String()
}

// SetFailureMode configures how the server responds to control messages.
func (m *MockTrackerServer) SetFailureMode(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
}

// SetErrorCode sets the error code returned in reject mode.
func (m *MockTrackerServer) SetErrorCode(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCode = code
}

// EmitFrame sends a frame message to the connected client.
func (m *MockTrackerServer) EmitFrame(frame interface{}) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("no client connected")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteJSON(map[string]interface{}{
		"type": "frame",
		"data": json.RawMessage(data),
	})
}

// EmitError sends an async error message to the connected client.
func (m *MockTrackerServer) EmitError(code, detail string) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("no client connected")
	}
	return conn.WriteJSON(map[string]interface{}{
		"type": "error",
		"data": map[string]interface{}{"ok": false, "code": code, "detail": detail},
	})
}

// Connected returns whether a client is currently connected.
func (m *MockTrackerServer) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Streaming returns whether the mock believes the camera is on.
func (m *MockTrackerServer) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaming
}

// handleWebSocket manages the WebSocket connection.
func (m *MockTrackerServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := trackerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.conn = conn
	m.connected = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connected = false
		m.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		if msg["type"] != "control" {
			continue
		}
		data, _ := msg["data"].(map[string]interface{})
		action, _ := data["action"].(string)

		m.mu.Lock()
		mode := m.mode
		code := m.errorCode
		m.mu.Unlock()

		switch mode {
		case TrackerModeTimeout:
			// Never ack; the client should time out on its own.
			continue
		case TrackerModeDisconnect:
			return
		case TrackerModeReject:
			_ = conn.WriteJSON(map[string]interface{}{
				"type": "ack",
				"data": map[string]interface{}{
					"action": action,
					"ok":     false,
					"code":   code,
					"detail": "mock rejection",
				},
			})
		default:
			m.mu.Lock()
			m.streaming = action == "start"
			m.mu.Unlock()
			_ = conn.WriteJSON(map[string]interface{}{
				"type": "ack",
				"data": map[string]interface{}{"action": action, "ok": true},
			})
		}
	}
}
