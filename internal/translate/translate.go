package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/auslanlive/auslan-client/internal/api"
	"github.com/auslanlive/auslan-client/internal/diaglog"
	"github.com/auslanlive/auslan-client/internal/textclean"
)

// ErrEmptyInput reports that the input reduced to nothing after cleaning.
var ErrEmptyInput = errors.New("nothing to translate")

// videoPrefix is where the backend's clip generator writes its output.
const videoPrefix = "output_videos/"

// Grammarian turns cleaned English into an Auslan sign sequence.
// *api.Client satisfies it.
type Grammarian interface {
	TextToSign(ctx context.Context, input string) (*api.T2SResult, error)
}

// Result is one completed text-to-video translation.
type Result struct {
	Input        string   `json:"input"`
	Cleaned      string   `json:"cleaned"`
	GrammarText  string   `json:"grammar_text"`
	Tokens       []string `json:"tokens,omitempty"`
	VideoName    string   `json:"video_name"`
	VideoURL     string   `json:"video_url,omitempty"`
	MissingWords []string `json:"missing_words,omitempty"`
}

// Service runs the text-to-video pipeline: clean the input, send it through
// the backend's grammar conversion, derive the clip name, and resolve the
// clip URL from storage.
type Service struct {
	grammarian Grammarian
	resolver   VideoResolver
	words      *textclean.WordSet

	logger   *diaglog.Logger
	loggerMu sync.RWMutex
}

// NewService creates a translation service. resolver may be nil, in which
// case results carry the video name but no URL. words may be nil to skip
// vocabulary checking.
func NewService(grammarian Grammarian, resolver VideoResolver, words *textclean.WordSet) *Service {
	return &Service{grammarian: grammarian, resolver: resolver, words: words}
}

// SetLogger injects a diaglog.Logger. Passing nil disables structured logging.
func (s *Service) SetLogger(l *diaglog.Logger) {
	s.loggerMu.Lock()
	s.logger = l
	s.loggerMu.Unlock()
}

func (s *Service) log(entry diaglog.LogEntry) {
	s.loggerMu.RLock()
	l := s.logger
	s.loggerMu.RUnlock()
	if l == nil {
		return
	}
	if entry.Component == "" {
		entry.Component = diaglog.ComponentTranslate
	}
	l.Log(entry)
}

// Translate runs one input through the pipeline. When the clip is missing
// from storage the returned Result still carries the grammar conversion and
// clip name alongside an error wrapping ErrVideoNotFound.
func (s *Service) Translate(ctx context.Context, input string) (*Result, error) {
	cleaned := textclean.Clean(input)
	if cleaned == "" {
		return nil, ErrEmptyInput
	}

	s.log(diaglog.LogEntry{
		Event:   diaglog.EventTranslateRequest,
		Payload: map[string]interface{}{"cleaned": cleaned},
	})

	res := &Result{Input: input, Cleaned: cleaned}
	if s.words != nil && s.words.Len() > 0 {
		res.MissingWords = s.words.Missing(cleaned)
	}

	t2s, err := s.grammarian.TextToSign(ctx, cleaned)
	if err != nil {
		s.log(diaglog.LogEntry{
			Event:   diaglog.EventTranslateFailed,
			Payload: map[string]interface{}{"error": err.Error()},
		})
		return nil, fmt.Errorf("grammar conversion: %w", err)
	}

	res.GrammarText = t2s.GrammarText()
	res.Tokens = t2s.Tokens
	res.VideoName = VideoObjectName(t2s)

	if s.resolver == nil {
		return res, nil
	}

	url, err := s.resolver.Resolve(ctx, videoPrefix+res.VideoName+".mp4")
	if err != nil {
		s.log(diaglog.LogEntry{
			Event:   diaglog.EventTranslateFailed,
			Payload: map[string]interface{}{"video": res.VideoName, "error": err.Error()},
		})
		return res, err
	}
	res.VideoURL = url

	s.log(diaglog.LogEntry{
		Event:   diaglog.EventTranslateResolve,
		Payload: map[string]interface{}{"video": res.VideoName},
	})
	return res, nil
}

// VideoObjectName derives the clip name the backend's generator used. Token
// lists are named by their Python list literal, e.g. ['SHOP', 'ME', 'GO'];
// plain strings are used verbatim.
func VideoObjectName(t2s *api.T2SResult) string {
	if t2s.IsList {
		return "['" + strings.Join(t2s.Tokens, "', '") + "']"
	}
	return t2s.Raw
}
