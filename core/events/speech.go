package events

const (
	// KindSpeechRequested identifies text handed to the speaker.
	KindSpeechRequested Kind = "speech_output.requested"
	// KindSpeechFailed identifies text the speaker could not accept.
	KindSpeechFailed Kind = "speech_output.failed"
)

// SpeechRequested carries the text handed to the speaker.
type SpeechRequested struct {
	Base
	Text string
}

// NewSpeechRequested creates a speech requested event.
func NewSpeechRequested(text string) SpeechRequested {
	return SpeechRequested{Base: NewBase(KindSpeechRequested), Text: text}
}

// SpeechFailed carries text that could not be vocalised.
type SpeechFailed struct {
	Base
	Text string
	Err  error
}

// NewSpeechFailed creates a speech failed event.
func NewSpeechFailed(text string, err error) SpeechFailed {
	return SpeechFailed{Base: NewBase(KindSpeechFailed), Text: text, Err: err}
}
