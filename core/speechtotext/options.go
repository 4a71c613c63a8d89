package speechtotext

import "github.com/koscakluka/ema-voice/core/audio"

const DefaultLanguage = "en-IN"

type RecognitionOptions struct {
	// Language is a BCP 47 locale tag, e.g. "en-IN".
	Language string
	// InterimResults asks for non-final hypotheses. The orchestrator always
	// leaves it off.
	InterimResults bool
	// Continuous keeps the session open across utterances. The orchestrator
	// always leaves it off, so a session ends after its first final result.
	Continuous bool

	// ResultCallback is called at most once per session in single-utterance
	// mode, always before EndCallback.
	ResultCallback func(Result)
	// ErrorCallback reports a recognition failure. EndCallback still follows.
	ErrorCallback func(error)
	// EndCallback is called exactly once per started session, however the
	// session ended.
	EndCallback func()

	EncodingInfo audio.EncodingInfo
}

type RecognitionOption func(*RecognitionOptions)

// NewRecognitionOptions applies opts over the defaults.
func NewRecognitionOptions(opts ...RecognitionOption) RecognitionOptions {
	options := RecognitionOptions{
		Language:       DefaultLanguage,
		ResultCallback: func(Result) {},
		ErrorCallback:  func(error) {},
		EndCallback:    func() {},
		EncodingInfo:   audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLanguage(language string) RecognitionOption {
	return func(o *RecognitionOptions) {
		if language != "" {
			o.Language = language
		}
	}
}

func WithInterimResults(interimResults bool) RecognitionOption {
	return func(o *RecognitionOptions) { o.InterimResults = interimResults }
}

func WithContinuous(continuous bool) RecognitionOption {
	return func(o *RecognitionOptions) { o.Continuous = continuous }
}

func WithResultCallback(callback func(Result)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ResultCallback = callback
		}
	}
}

func WithErrorCallback(callback func(error)) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.ErrorCallback = callback
		}
	}
}

func WithEndCallback(callback func()) RecognitionOption {
	return func(o *RecognitionOptions) {
		if callback != nil {
			o.EndCallback = callback
		}
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) RecognitionOption {
	return func(o *RecognitionOptions) {
		if !encodingInfo.IsZero() {
			o.EncodingInfo = encodingInfo
		}
	}
}
