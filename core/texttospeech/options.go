package texttospeech

// Utterance is one unit of text submitted for vocalisation.
type Utterance struct {
	Text string
	// Language is a BCP 47 locale tag, e.g. "en-IN".
	Language string
}

func NewUtterance(text, language string) Utterance {
	return Utterance{Text: text, Language: language}
}

// Speaker is a platform text-to-speech capability.
//
// Speak hands the utterance to the platform's output queue and returns
// without waiting for playback. Utterances play one after another in the
// order they were submitted. Playback outcome is not reported.
type Speaker interface {
	Speak(utterance Utterance) error
}

// SpeakerFunc adapts a plain function to [Speaker].
type SpeakerFunc func(utterance Utterance) error

func (f SpeakerFunc) Speak(utterance Utterance) error { return f(utterance) }
