package prefs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Preference keys. Kept in the browser client's localStorage key style so
// the backend team can correlate support reports across clients.
const (
	KeyAlwaysShowGrammar = "auslan:alwaysShowGrammar"
)

// Store is a small persistent preference store: a JSON object of booleans at
// ~/.config/auslanlive/prefs.json. External edits to the file are picked up
// by Watch and fanned out to subscribers.
type Store struct {
	path string

	mu     sync.Mutex
	values map[string]bool
	subs   []func(key string, value bool)
}

// DefaultPath returns ~/.config/auslanlive/prefs.json
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "auslanlive", "prefs.json")
}

// Open loads the store at path, creating an empty one if the file does not
// exist.
func Open(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]bool)}
	if err := s.reload(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// Get returns a preference value; missing keys are false.
func (s *Store) Get(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Set persists a preference value and notifies subscribers.
func (s *Store) Set(key string, value bool) error {
	s.mu.Lock()
	if s.values[key] == value {
		s.mu.Unlock()
		return nil
	}
	s.values[key] = value
	data, err := json.MarshalIndent(s.values, "", "  ")
	subs := append([]func(string, bool){}, s.subs...)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.write(data); err != nil {
		return err
	}
	for _, fn := range subs {
		fn(key, value)
	}
	return nil
}

// Subscribe registers a callback invoked on every preference change, both
// local Sets and external file edits seen by Watch.
func (s *Store) Subscribe(fn func(key string, value bool)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// write lands the file via temp + rename so watchers never see a torn write.
func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "prefs-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// reload reads the file and notifies subscribers of changed keys.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var loaded map[string]bool
	if err := json.Unmarshal(data, &loaded); err != nil {
		return err
	}

	s.mu.Lock()
	var changed []struct {
		key   string
		value bool
	}
	for k, v := range loaded {
		if s.values[k] != v {
			changed = append(changed, struct {
				key   string
				value bool
			}{k, v})
		}
	}
	s.values = loaded
	subs := append([]func(string, bool){}, s.subs...)
	s.mu.Unlock()

	for _, c := range changed {
		for _, fn := range subs {
			fn(c.key, c.value)
		}
	}
	return nil
}

// Watch follows external edits to the preference file until ctx is
// cancelled. Falls back to polling when fsnotify is unavailable.
func (s *Store) Watch(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.watchWithPolling(ctx)
		return
	}
	defer watcher.Close()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.watchWithPolling(ctx)
		return
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		s.watchWithPolling(ctx)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				s.watchWithPolling(ctx)
				return
			}
			if event.Name == s.path && (event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename) {
				// Small delay to ensure write is complete
				time.Sleep(50 * time.Millisecond)
				_ = s.reload()
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				s.watchWithPolling(ctx)
				return
			}
		}
	}
}

// watchWithPolling re-reads the file once a second.
func (s *Store) watchWithPolling(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(s.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				_ = s.reload()
			}
		}
	}
}
