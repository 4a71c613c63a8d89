package events

import "github.com/google/uuid"

const (
	// KindRecognitionStarted identifies an accepted recognition session start.
	KindRecognitionStarted Kind = "recognition.started"
	// KindRecognitionResult identifies the final transcript of a session.
	KindRecognitionResult Kind = "recognition.result"
	// KindRecognitionFailed identifies a mid-session platform failure.
	KindRecognitionFailed Kind = "recognition.failed"
	// KindRecognitionEnded identifies the end of a session.
	KindRecognitionEnded Kind = "recognition.ended"
	// KindRecognitionStateChanged identifies a listening state transition.
	KindRecognitionStateChanged Kind = "recognition.state_changed"
)

// RecognitionEvent is implemented by every event bound to a recognition
// session.
type RecognitionEvent interface {
	Event
	Session() uuid.UUID
}

type sessionBase struct {
	Base
	SessionID uuid.UUID
}

func (s sessionBase) Session() uuid.UUID { return s.SessionID }

// RecognitionStarted marks an accepted session start.
type RecognitionStarted struct{ sessionBase }

// NewRecognitionStarted creates a recognition started event.
func NewRecognitionStarted(sessionID uuid.UUID) RecognitionStarted {
	return RecognitionStarted{sessionBase{Base: NewBase(KindRecognitionStarted), SessionID: sessionID}}
}

// RecognitionResult carries the best transcript of the session's utterance.
type RecognitionResult struct {
	sessionBase
	Transcript string
}

// NewRecognitionResult creates a recognition result event.
func NewRecognitionResult(sessionID uuid.UUID, transcript string) RecognitionResult {
	return RecognitionResult{
		sessionBase: sessionBase{Base: NewBase(KindRecognitionResult), SessionID: sessionID},
		Transcript:  transcript,
	}
}

// RecognitionFailed carries a platform failure reported during a session.
type RecognitionFailed struct {
	sessionBase
	Err error
}

// NewRecognitionFailed creates a recognition failed event.
func NewRecognitionFailed(sessionID uuid.UUID, err error) RecognitionFailed {
	return RecognitionFailed{
		sessionBase: sessionBase{Base: NewBase(KindRecognitionFailed), SessionID: sessionID},
		Err:         err,
	}
}

// RecognitionEnded marks the end of a session.
type RecognitionEnded struct{ sessionBase }

// NewRecognitionEnded creates a recognition ended event.
func NewRecognitionEnded(sessionID uuid.UUID) RecognitionEnded {
	return RecognitionEnded{sessionBase{Base: NewBase(KindRecognitionEnded), SessionID: sessionID}}
}

// RecognitionStateChanged carries the listening state after a transition.
type RecognitionStateChanged struct {
	Base
	Listening bool
}

// NewRecognitionStateChanged creates a recognition state changed event.
func NewRecognitionStateChanged(listening bool) RecognitionStateChanged {
	return RecognitionStateChanged{Base: NewBase(KindRecognitionStateChanged), Listening: listening}
}
