package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auslanlive/auslan-client/internal/keypoint"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL}), srv
}

func TestSentenceWords(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_sentence_words" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("method = %s", r.Method)
		}
		w.Write([]byte(`{"words":[{"id":0,"word":"HELLO","confidence":0.91,"auto":true,"alternatives":[{"label":"HELLO","confidence":0.91}]}]}`))
	})

	words, err := client.SentenceWords(context.Background())
	if err != nil {
		t.Fatalf("SentenceWords: %v", err)
	}
	if len(words) != 1 || words[0].Word != "HELLO" || !words[0].Auto {
		t.Errorf("unexpected words: %+v", words)
	}
}

func TestUploadRecordingSendsFrames(t *testing.T) {
	var gotBody struct {
		Frames []keypoint.Frame `json:"frames"`
	}
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recording" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"top_1":{"label":"SHOP","confidence":0.8},"top_5":[{"label":"SHOP","confidence":0.8}]}`))
	})

	frames := []keypoint.Frame{
		{LeftHand: []keypoint.Landmark{{X: 0.5, Y: 0.5}}},
		{RightHand: []keypoint.Landmark{{X: 0.1, Y: 0.9}}},
	}
	res, err := client.UploadRecording(context.Background(), frames)
	if err != nil {
		t.Fatalf("UploadRecording: %v", err)
	}
	if res.Top1.Label != "SHOP" {
		t.Errorf("top1 = %+v", res.Top1)
	}
	if len(gotBody.Frames) != 2 {
		t.Errorf("server received %d frames, want 2", len(gotBody.Frames))
	}
}

func TestReplaceWordBody(t *testing.T) {
	var got map[string]interface{}
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/replace_word" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{}`))
	})

	if err := client.ReplaceWord(context.Background(), 3, "STORE"); err != nil {
		t.Fatalf("ReplaceWord: %v", err)
	}
	if got["word_id"] != float64(3) || got["new_word"] != "STORE" {
		t.Errorf("body = %v", got)
	}
}

func TestTextToSignStringAndList(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantIsList bool
		wantText   string
	}{
		{"token list", `{"message":["SHOP","ME","GO"]}`, true, "SHOP ME GO"},
		{"plain string", `{"message":"SHOP ME GO"}`, false, "SHOP ME GO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["t2s_input"] == "" {
					t.Error("missing t2s_input")
				}
				w.Write([]byte(tt.response))
			})

			res, err := client.TextToSign(context.Background(), "me go shop")
			if err != nil {
				t.Fatalf("TextToSign: %v", err)
			}
			if res.IsList != tt.wantIsList {
				t.Errorf("IsList = %v, want %v", res.IsList, tt.wantIsList)
			}
			if res.GrammarText() != tt.wantText {
				t.Errorf("GrammarText = %q, want %q", res.GrammarText(), tt.wantText)
			}
		})
	}
}

func TestHTTPErrorSurfacesOnce(t *testing.T) {
	var calls int
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "backend exploded", http.StatusInternalServerError)
	})

	_, err := client.SignToText(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "http 500") {
		t.Errorf("error should carry status: %v", err)
	}
	// No automatic retry: exactly one request.
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestProcessingAndFrameStatus(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_processing_status":
			w.Write([]byte(`{"is_paused":true}`))
		case "/get_frame_status":
			w.Write([]byte(`{"frames_collected":40,"min_frames":32,"ready_to_predict":true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	paused, err := client.ProcessingStatus(context.Background())
	if err != nil || !paused {
		t.Errorf("ProcessingStatus = %v, %v; want true, nil", paused, err)
	}

	fs, err := client.FrameStatus(context.Background())
	if err != nil {
		t.Fatalf("FrameStatus: %v", err)
	}
	if fs.FramesCollected != 40 || fs.MinFrames != 32 || !fs.ReadyToPredict {
		t.Errorf("frame status = %+v", fs)
	}
}
