package orchestration

import (
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

const (
	DefaultLanguage       = speechtotext.DefaultLanguage
	defaultEventQueueSize = 64
)

type OrchestratorOption func(*Orchestrator)

// WithSpeechToText sets the recognition capability. Without it the
// orchestrator treats recognition as unavailable.
func WithSpeechToText(capability speechtotext.Capability) OrchestratorOption {
	return func(o *Orchestrator) {
		o.recognitionCapability = capability
	}
}

// WithRecognizer is a shorthand for WithSpeechToText(speechtotext.Available(recognizer)).
func WithRecognizer(recognizer speechtotext.Recognizer) OrchestratorOption {
	return WithSpeechToText(speechtotext.Available(recognizer))
}

func WithTextToSpeech(speaker texttospeech.Speaker) OrchestratorOption {
	return func(o *Orchestrator) {
		o.speaker = speaker
	}
}

func WithResponseGenerator(generator ResponseGenerator) OrchestratorOption {
	return func(o *Orchestrator) {
		if generator != nil {
			o.generator = generator
		}
	}
}

// WithLanguage sets the BCP 47 locale used for both recognition and speech
// output.
func WithLanguage(language string) OrchestratorOption {
	return func(o *Orchestrator) {
		if language != "" {
			o.language = language
		}
	}
}

// WithFallbackReply sets the assistant message recorded when the response
// generator fails.
func WithFallbackReply(reply string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.fallbackReply = reply
	}
}

func WithEventQueueSize(size int) OrchestratorOption {
	return func(o *Orchestrator) {
		if size > 0 {
			o.queueSize = size
		}
	}
}

type OrchestrateOptions struct {
	onMessage          func(message Message)
	onSessionState     func(state SessionState)
	onRecognitionError func(err *RecognitionError)
	onSpeech           func(text string, err error)
}

type OrchestrateOption func(*OrchestrateOptions)

// WithMessageCallback registers a callback for every message appended to the
// conversation log.
func WithMessageCallback(callback func(message Message)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onMessage = callback
	}
}

// WithSessionStateCallback registers a callback for listening state changes
// as observed by the dispatch loop.
func WithSessionStateCallback(callback func(state SessionState)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSessionState = callback
	}
}

// WithRecognitionErrorCallback registers a callback for platform failures
// reported during an active session. The session still ends through the
// platform end notification.
func WithRecognitionErrorCallback(callback func(err *RecognitionError)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onRecognitionError = callback
	}
}

// WithSpeechCallback registers a callback for every text handed to speech
// output, including diagnostic output. err is an *OutputFailure when the
// speaker could not take the text.
func WithSpeechCallback(callback func(text string, err error)) OrchestrateOption {
	return func(o *OrchestrateOptions) {
		o.onSpeech = callback
	}
}
