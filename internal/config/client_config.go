package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ClientConfig holds all auslan-core configuration
type ClientConfig struct {
	BackendURL            string `json:"backend_url"`                       // Flask recognition backend base URL
	TrackerURL            string `json:"tracker_url"`                       // Landmark tracker sidecar WebSocket URL
	PollIntervalMs        int    `json:"poll_interval_ms"`                  // Backend polling cadence
	UploadIntervalMs      int    `json:"upload_interval_ms"`                // Frame window upload cadence
	BufferCapacity        int    `json:"buffer_capacity"`                   // Max buffered frames before FIFO eviction
	MinUploadFrames       int    `json:"min_upload_frames"`                 // Smallest window the ticker uploads
	MinForceFrames        int    `json:"min_force_frames"`                  // Smallest window a manual predict accepts
	VideoBucket           string `json:"video_bucket,omitempty"`            // GCS bucket holding sign clips (optional)
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty"` // Backend HTTP timeout (optional, defaults to 10)
	WordListPath          string `json:"word_list_path,omitempty"`          // JSON array of permitted words (optional)
	APIToken              string `json:"api_token,omitempty"`               // Bearer token for the backend (optional)
}

// LoadClientConfig reads configuration from ~/.config/auslanlive/client.json
// Falls back to configs/default-client.json if user config doesn't exist
func LoadClientConfig() (*ClientConfig, error) {
	// Try user config first
	configDir := filepath.Join(os.Getenv("HOME"), ".config", "auslanlive")
	userConfigPath := filepath.Join(configDir, "client.json")

	data, err := os.ReadFile(userConfigPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Fall back to default config
			defaultPath := "configs/default-client.json"
			data, err = os.ReadFile(defaultPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}

			// Create user config directory for future saves
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create config directory: %w", err)
			}
		} else {
			return nil, err
		}
	}

	var config ClientConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveClientConfig writes configuration to ~/.config/auslanlive/client.json
func SaveClientConfig(config *ClientConfig) error {
	// Validate before saving
	if err := config.Validate(); err != nil {
		return err
	}

	configDir := filepath.Join(os.Getenv("HOME"), ".config", "auslanlive")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "client.json")

	// Write with indentation for readability
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks ClientConfig for validity
func (c *ClientConfig) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("backend_url is required")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("backend_url must be an http(s) URL, got %q", c.BackendURL)
	}

	if c.TrackerURL == "" {
		return fmt.Errorf("tracker_url is required")
	}
	if !strings.HasPrefix(c.TrackerURL, "ws://") && !strings.HasPrefix(c.TrackerURL, "wss://") {
		return fmt.Errorf("tracker_url must be a ws(s) URL, got %q", c.TrackerURL)
	}

	// Polling faster than 100ms hammers the backend for no visible gain
	if c.PollIntervalMs < 100 || c.PollIntervalMs > 10000 {
		return fmt.Errorf("poll_interval_ms must be between 100 and 10000, got %d", c.PollIntervalMs)
	}

	if c.UploadIntervalMs < 500 || c.UploadIntervalMs > 30000 {
		return fmt.Errorf("upload_interval_ms must be between 500 and 30000, got %d", c.UploadIntervalMs)
	}

	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer_capacity must be at least 1, got %d", c.BufferCapacity)
	}

	if c.MinUploadFrames < 1 || c.MinUploadFrames > c.BufferCapacity {
		return fmt.Errorf("min_upload_frames must be between 1 and buffer_capacity (%d), got %d", c.BufferCapacity, c.MinUploadFrames)
	}

	// The forced predict needs at least a full upload window
	if c.MinForceFrames < c.MinUploadFrames || c.MinForceFrames > c.BufferCapacity {
		return fmt.Errorf("min_force_frames must be between min_upload_frames (%d) and buffer_capacity (%d), got %d", c.MinUploadFrames, c.BufferCapacity, c.MinForceFrames)
	}

	if c.RequestTimeoutSeconds < 0 || c.RequestTimeoutSeconds > 120 {
		return fmt.Errorf("request_timeout_seconds must be between 0 and 120, got %d", c.RequestTimeoutSeconds)
	}

	return nil
}
