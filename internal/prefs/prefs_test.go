package prefs

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestGetSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Get(KeyAlwaysShowGrammar) {
		t.Error("missing key should default to false")
	}

	if err := store.Set(KeyAlwaysShowGrammar, true); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !store.Get(KeyAlwaysShowGrammar) {
		t.Error("Set did not take")
	}

	// A second store over the same file sees the persisted value
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Get(KeyAlwaysShowGrammar) {
		t.Error("value did not persist")
	}
}

func TestOpenMissingFile(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "nope", "prefs.json"))
	if err != nil {
		t.Fatalf("Open on missing file should succeed: %v", err)
	}
	if store.Get("anything") {
		t.Error("empty store should return false")
	}
}

func TestSubscribeOnSet(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	events := map[string]bool{}
	store.Subscribe(func(key string, value bool) {
		mu.Lock()
		events[key] = value
		mu.Unlock()
	})

	if err := store.Set(KeyAlwaysShowGrammar, true); err != nil {
		t.Fatal(err)
	}
	// Setting the same value again must not re-notify
	if err := store.Set(KeyAlwaysShowGrammar, true); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if v, ok := events[KeyAlwaysShowGrammar]; !ok || !v {
		t.Errorf("events = %v", events)
	}
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestReloadPicksUpExternalEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got []bool
	store.Subscribe(func(key string, value bool) {
		mu.Lock()
		got = append(got, value)
		mu.Unlock()
	})

	// Simulate another process editing the file
	edit := `{"auslan:alwaysShowGrammar": true}`
	if err := os.WriteFile(path, []byte(edit), 0644); err != nil {
		t.Fatal(err)
	}
	if err := store.reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if !store.Get(KeyAlwaysShowGrammar) {
		t.Error("external edit not applied")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || !got[0] {
		t.Errorf("subscriber saw %v", got)
	}
}
