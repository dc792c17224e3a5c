package diaglog

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestLogWritesNDJSON(t *testing.T) {
	t.Setenv("AUSLAN_DEBUG", "true")

	tmp := t.TempDir() + "/test.ndjson"
	l, err := New(tmp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	entries := []LogEntry{
		{Component: ComponentTracker, Event: EventWSConnect},
		{Component: ComponentPoller, Event: EventPollCycle, Seq: 42, Reason: "tick"},
		{Component: ComponentSentence, Event: EventPromptOpened},
	}
	for _, e := range entries {
		l.Log(e)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(tmp)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines []map[string]interface{}
	for scanner.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line: %v -> %s", err, scanner.Text())
		}
		lines = append(lines, m)
	}
	if len(lines) != len(entries) {
		t.Fatalf("want %d lines, got %d", len(entries), len(lines))
	}
	if lines[0]["component"] != ComponentTracker {
		t.Errorf("component mismatch: %v", lines[0]["component"])
	}
	if lines[1]["seq"] != float64(42) {
		t.Errorf("seq mismatch: %v", lines[1]["seq"])
	}
	if lines[0]["ts"] == nil {
		t.Error("ts field missing")
	}
}

func TestDisabledLoggerWritesNothing(t *testing.T) {
	t.Setenv("AUSLAN_DEBUG", "")

	tmp := t.TempDir() + "/never-created.ndjson"
	l, err := New(tmp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Log(LogEntry{Component: ComponentCore, Event: EventCameraStart})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Errorf("log file should not exist when debug disabled, stat err = %v", err)
	}
}

func TestPayloadRedaction(t *testing.T) {
	t.Setenv("AUSLAN_DEBUG", "true")

	tmp := t.TempDir() + "/redact.ndjson"
	l, err := New(tmp)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Log(LogEntry{
		Component: ComponentAPI,
		Event:     EventUploadFailed,
		Payload: map[string]interface{}{
			"token":  "abc-secret-token",
			"status": 500,
		},
	})
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(tmp)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "abc-secret-token") {
		t.Error("token value leaked into log")
	}
	if !strings.Contains(string(data), "[REDACTED]") {
		t.Error("expected [REDACTED] marker in log")
	}
}

func TestNilAndNoOpLoggerSafe(t *testing.T) {
	var l *Logger
	l.Log(LogEntry{Component: ComponentCore, Event: EventCameraStart}) // must not panic
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}

	n := NewNoOp()
	n.Log(LogEntry{Component: ComponentCore, Event: EventCameraStop})
	if err := n.Close(); err != nil {
		t.Errorf("noop Close: %v", err)
	}
}
