package speechtotext

import (
	"errors"
	"fmt"
)

var ErrNoRecognizer = errors.New("no speech-to-text recognizer")

// Capability records, once, whether a speech-to-text platform exists.
// Downstream code branches on it instead of probing for the platform again.
type Capability struct {
	recognizer Recognizer
	reason     error
}

func Available(recognizer Recognizer) Capability {
	if recognizer == nil {
		return Unavailable(ErrNoRecognizer)
	}
	return Capability{recognizer: recognizer}
}

func Unavailable(reason error) Capability {
	if reason == nil {
		reason = ErrNoRecognizer
	}
	return Capability{reason: reason}
}

// Detect runs open once and turns its outcome into a Capability. A panicking
// opener counts as an unavailable platform.
func Detect(open func() (Recognizer, error)) (capability Capability) {
	if open == nil {
		return Unavailable(ErrNoRecognizer)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			capability = Unavailable(fmt.Errorf("speech-to-text open panicked: %v", recovered))
		}
	}()

	recognizer, err := open()
	if err != nil {
		return Unavailable(fmt.Errorf("speech-to-text unavailable: %w", err))
	}
	return Available(recognizer)
}

func (c Capability) IsAvailable() bool { return c.recognizer != nil }

func (c Capability) Recognizer() (Recognizer, bool) { return c.recognizer, c.recognizer != nil }

// Reason explains why the capability is unavailable; nil when available.
func (c Capability) Reason() error {
	if c.recognizer != nil {
		return nil
	}
	if c.reason == nil {
		return ErrNoRecognizer
	}
	return c.reason
}
