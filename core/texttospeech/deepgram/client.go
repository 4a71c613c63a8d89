package deepgram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const (
	defaultSpeakURL  = "wss://api.deepgram.com/v1/speak"
	defaultQueueSize = 32
)

var (
	ErrAPIKeyMissing  = errors.New("deepgram api key not found")
	ErrInvalidVoice   = errors.New("invalid voice")
	ErrQueueFull      = errors.New("speech queue full")
	ErrSpeakerClosed  = errors.New("speaker closed")
	ErrOutputMissing  = errors.New("audio output missing")
	errEmptyUtterance = errors.New("empty utterance")
)

var _ texttospeech.Speaker = (*Speaker)(nil)

// Speaker synthesises utterances with Deepgram's streaming speak API and
// plays them on an audio output, strictly one after another.
type Speaker struct {
	apiKey   string
	voice    deepgramVoice
	speakURL string
	output   audio.Output
	dialer   *websocket.Dialer

	// voiceSet records an explicit WithVoice, which wins over the utterance
	// language
	voiceSet bool

	// languages already warned about, only touched by the worker
	mismatchedLanguages map[string]bool

	queue     chan texttospeech.Utterance
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

type SpeakerOption func(*Speaker) error

func WithAPIKey(apiKey string) SpeakerOption {
	return func(s *Speaker) error {
		s.apiKey = apiKey
		return nil
	}
}

func WithVoice(voice deepgramVoice) SpeakerOption {
	return func(s *Speaker) error {
		if !slices.Contains(availableVoices, voice) {
			return fmt.Errorf("%w: %q", ErrInvalidVoice, voice)
		}
		s.voice = voice
		s.voiceSet = true
		return nil
	}
}

func WithSpeakURL(speakURL string) SpeakerOption {
	return func(s *Speaker) error {
		if speakURL != "" {
			s.speakURL = speakURL
		}
		return nil
	}
}

func WithQueueSize(size int) SpeakerOption {
	return func(s *Speaker) error {
		if size > 0 {
			s.queue = make(chan texttospeech.Utterance, size)
		}
		return nil
	}
}

func NewSpeaker(output audio.Output, opts ...SpeakerOption) (*Speaker, error) {
	if output == nil {
		return nil, ErrOutputMissing
	}

	speaker := &Speaker{
		voice:               defaultVoice,
		speakURL:            defaultSpeakURL,
		output:              output,
		dialer:              websocket.DefaultDialer,
		mismatchedLanguages: map[string]bool{},
		queue:               make(chan texttospeech.Utterance, defaultQueueSize),
		done:                make(chan struct{}),
	}
	if apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY"); ok {
		speaker.apiKey = apiKey
	}

	for _, opt := range opts {
		if err := opt(speaker); err != nil {
			return nil, err
		}
	}

	if speaker.apiKey == "" {
		return nil, ErrAPIKeyMissing
	}

	speaker.ctx, speaker.cancel = context.WithCancel(context.Background())
	go speaker.run()

	return speaker, nil
}

// Speak enqueues the utterance and returns immediately.
func (s *Speaker) Speak(utterance texttospeech.Utterance) error {
	if utterance.Text == "" {
		return errEmptyUtterance
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSpeakerClosed
	}

	select {
	case s.queue <- utterance:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drops queued utterances, interrupts the current one and waits for
// the worker to exit.
func (s *Speaker) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()

		s.cancel()
		s.output.ClearBuffer()
		<-s.done
	})
	return nil
}

func (s *Speaker) run() {
	defer close(s.done)

	for utterance := range s.queue {
		if s.ctx.Err() != nil {
			continue
		}
		if err := s.speak(s.ctx, utterance); err != nil {
			logger.Warn("failed to speak utterance", "error", err, "length", len(utterance.Text))
		}
	}
}

// voiceFor picks the voice for an utterance language. A configured voice is
// always used; otherwise the language's default voice is, falling back to
// the speaker's voice when Deepgram has none for the language.
func (s *Speaker) voiceFor(language string) deepgramVoice {
	if language == "" {
		return s.voice
	}

	if !s.voiceSet {
		if voice, ok := VoiceForLanguage(language); ok {
			return voice
		}
	}

	if primaryLanguage(language) != s.voice.Language() && !s.mismatchedLanguages[language] {
		s.mismatchedLanguages[language] = true
		logger.Warn("voice does not speak the utterance language",
			"voice", string(s.voice),
			"language", language,
		)
	}
	return s.voice
}
