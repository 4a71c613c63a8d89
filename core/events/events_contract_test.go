package events

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	sessionID := uuid.New()

	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "recognition started", event: NewRecognitionStarted(sessionID), expected: KindRecognitionStarted},
		{name: "recognition result", event: NewRecognitionResult(sessionID, "hello"), expected: KindRecognitionResult},
		{name: "recognition failed", event: NewRecognitionFailed(sessionID, errors.New("boom")), expected: KindRecognitionFailed},
		{name: "recognition ended", event: NewRecognitionEnded(sessionID), expected: KindRecognitionEnded},
		{name: "recognition state changed", event: NewRecognitionStateChanged(true), expected: KindRecognitionStateChanged},
		{name: "message appended", event: NewMessageAppended(1, "user", "hello"), expected: KindMessageAppended},
		{name: "speech requested", event: NewSpeechRequested("hello"), expected: KindSpeechRequested},
		{name: "speech failed", event: NewSpeechFailed("hello", errors.New("boom")), expected: KindSpeechFailed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if testCase.event.Timestamp().IsZero() {
				t.Fatalf("expected timestamp to be set")
			}
		})
	}
}

func TestRecognitionEventsCarrySession(t *testing.T) {
	sessionID := uuid.New()

	for _, event := range []RecognitionEvent{
		NewRecognitionStarted(sessionID),
		NewRecognitionResult(sessionID, "hello"),
		NewRecognitionFailed(sessionID, errors.New("boom")),
		NewRecognitionEnded(sessionID),
	} {
		if event.Session() != sessionID {
			t.Fatalf("expected %s to carry session %s, got %s", event.Kind(), sessionID, event.Session())
		}
	}
}
