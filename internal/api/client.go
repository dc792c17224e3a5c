// Package api is the typed HTTP client for the sign-recognition backend.
// All endpoints are JSON under a common base path. Requests are never
// retried here: every failure surfaces to the caller once, and recovery is
// user-initiated.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/keypoint"
	"github.com/auslanlive/auslan-client/internal/sentence"
)

// Config configures the backend client.
type Config struct {
	BaseURL        string // e.g. "http://localhost:8080/api"
	Token          string // optional auth token, sent as Bearer
	TimeoutSeconds int    // default 10
}

// Client talks to the recognition backend.
type Client struct {
	cfg    Config
	client *http.Client

	logger   *diaglog.Logger
	loggerMu sync.RWMutex
}

// NewClient creates a backend client.
func NewClient(cfg Config) *Client {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// SetLogger injects a diaglog.Logger for debug logging.
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
		entry.Component = diaglog.ComponentAPI
	}
	l.Log(entry)
}

// ── Capture / recognition ────────────────────────────────────────────────────

// SendKeypoints forwards one captured frame to the backend. Fire-and-forget:
// the response body is ignored beyond the status check.
func (c *Client) SendKeypoints(ctx context.Context, frame *keypoint.Frame) error {
	body := map[string]interface{}{"keypoints": frame}
	return c.post(ctx, "/keypoints", body, nil)
}

// UploadRecording ships a buffered frame window to the classifier.
func (c *Client) UploadRecording(ctx context.Context, frames []keypoint.Frame) (*RecordingResult, error) {
	body := map[string]interface{}{"frames": frames}
	var out RecordingResult
	if err := c.post(ctx, "/recording", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForcePredict asks the backend to classify the current window immediately.
func (c *Client) ForcePredict(ctx context.Context) error {
	return c.post(ctx, "/force_predict", nil, nil)
}

// ── Polling reads ────────────────────────────────────────────────────────────

// SignToText returns the backend's current translation of the signed input.
func (c *Client) SignToText(ctx context.Context) (string, error) {
	var out struct {
		Translation string `json:"translation"`
	}
	if err := c.get(ctx, "/get_sign_to_text", &out); err != nil {
		return "", err
	}
	return out.Translation, nil
}

// GemFlag reports whether the backend is inside its sentence-assembly step
// (drives the loading indicator).
func (c *Client) GemFlag(ctx context.Context) (bool, error) {
	var out struct {
		Flag bool `json:"flag"`
	}
	if err := c.get(ctx, "/getGemFlag", &out); err != nil {
		return false, err
	}
	return out.Flag, nil
}

// SentenceWords fetches the recognized sentence as structured word tokens.
func (c *Client) SentenceWords(ctx context.Context) ([]sentence.Word, error) {
	var out struct {
		Words []sentence.Word `json:"words"`
	}
	if err := c.get(ctx, "/get_sentence_words", &out); err != nil {
		return nil, err
	}
	return out.Words, nil
}

// PendingPredictions fetches disambiguation requests awaiting the user.
func (c *Client) PendingPredictions(ctx context.Context) ([]sentence.Prediction, error) {
	var out struct {
		Predictions []sentence.Prediction `json:"predictions"`
	}
	if err := c.get(ctx, "/get_pending_predictions", &out); err != nil {
		return nil, err
	}
	return out.Predictions, nil
}

// ProcessingStatus reports whether the backend has paused frame processing.
func (c *Client) ProcessingStatus(ctx context.Context) (bool, error) {
	var out struct {
		IsPaused bool `json:"is_paused"`
	}
	if err := c.get(ctx, "/get_processing_status", &out); err != nil {
		return false, err
	}
	return out.IsPaused, nil
}

// FrameStatus fetches window-progress metadata for display.
func (c *Client) FrameStatus(ctx context.Context) (*FrameStatus, error) {
	var out FrameStatus
	if err := c.get(ctx, "/get_frame_status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Corrections ──────────────────────────────────────────────────────────────

// SelectWord resolves the open disambiguation prompt with the chosen word.
func (c *Client) SelectWord(ctx context.Context, word string) error {
	return c.post(ctx, "/select_word", map[string]string{"word": word}, nil)
}

// SkipPrediction dismisses the open disambiguation prompt.
func (c *Client) SkipPrediction(ctx context.Context) error {
	return c.post(ctx, "/skip_prediction", nil, nil)
}

// ReplaceWord swaps a recognized word by its stable id.
func (c *Client) ReplaceWord(ctx context.Context, wordID int, newWord string) error {
	body := map[string]interface{}{"word_id": wordID, "new_word": newWord}
	return c.post(ctx, "/replace_word", body, nil)
}

// ClearSentence wipes the backend's sentence state.
func (c *Client) ClearSentence(ctx context.Context) error {
	return c.post(ctx, "/clear_sentence", nil, nil)
}

// ── Text to sign ─────────────────────────────────────────────────────────────

// TextToSign submits cleaned text to the grammar parser.
func (c *Client) TextToSign(ctx context.Context, input string) (*T2SResult, error) {
	var out t2sMessage
	if err := c.post(ctx, "/t2s", map[string]string{"t2s_input": input}, &out); err != nil {
		return nil, err
	}
	return parseT2SMessage(out.Message)
}

// ── Plumbing ─────────────────────────────────────────────────────────────────

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(diaglog.LogEntry{
			Event:   diaglog.EventPollError,
			Reason:  path,
			Payload: map[string]interface{}{"status": resp.StatusCode, "body": truncate(data, 200)},
		})
		return fmt.Errorf("%s %s: http %d: %s", method, path, resp.StatusCode, truncate(data, 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
