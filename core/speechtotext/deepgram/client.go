package deepgram

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

const (
	defaultListenURL = "wss://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
)

var (
	ErrAPIKeyMissing = errors.New("deepgram api key not found")
	ErrSessionActive = errors.New("recognition session already active")
)

var _ speechtotext.Recognizer = (*Recognizer)(nil)

// Recognizer streams microphone audio to Deepgram's live transcription API,
// one utterance per session.
type Recognizer struct {
	apiKey    string
	model     string
	listenURL string
	input     audio.Input
	dialer    *websocket.Dialer

	mu      sync.Mutex
	session *session
}

type RecognizerOption func(*Recognizer)

// WithAPIKey overrides the DEEPGRAM_API_KEY environment variable.
func WithAPIKey(apiKey string) RecognizerOption {
	return func(r *Recognizer) { r.apiKey = apiKey }
}

func WithModel(model string) RecognizerOption {
	return func(r *Recognizer) {
		if model != "" {
			r.model = model
		}
	}
}

// WithAudioInput sets the capture device started for every session. Without
// one, audio has to be pushed through SendAudio.
func WithAudioInput(input audio.Input) RecognizerOption {
	return func(r *Recognizer) { r.input = input }
}

func WithListenURL(listenURL string) RecognizerOption {
	return func(r *Recognizer) {
		if listenURL != "" {
			r.listenURL = listenURL
		}
	}
}

func NewRecognizer(opts ...RecognizerOption) (*Recognizer, error) {
	recognizer := &Recognizer{
		model:     defaultModel,
		listenURL: defaultListenURL,
		dialer:    websocket.DefaultDialer,
	}
	if apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		recognizer.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(recognizer)
	}

	if recognizer.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	return recognizer, nil
}

// SendAudio forwards audio to the active session. It is a no-op when no
// session is active.
func (r *Recognizer) SendAudio(audio []byte) error {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	if session == nil {
		return nil
	}
	if err := session.sendAudio(audio); err != nil {
		return fmt.Errorf("failed to send audio to deepgram: %w", err)
	}
	return nil
}

func (r *Recognizer) release(s *session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == s {
		r.session = nil
	}
}
