package orchestration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

func TestRecognitionSessionsAcceptContract(t *testing.T) {
	queued := []events.Event{}
	sessions := newRecognitionSessions(speechtotext.Available(&recognizerStub{}), DefaultLanguage, func(event events.Event) {
		queued = append(queued, event)
	})

	if err := sessions.start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	started, ok := queued[0].(events.RecognitionStarted)
	if !ok {
		t.Fatalf("expected a started event first, got %T", queued[0])
	}
	sessionID := started.Session()

	testCases := []struct {
		name    string
		event   events.RecognitionEvent
		wantErr error
		state   SessionState
	}{
		{name: "stale result", event: events.NewRecognitionResult(uuid.New(), "x"), wantErr: ErrStaleSession, state: SessionListening},
		{name: "result", event: events.NewRecognitionResult(sessionID, "x"), state: SessionListening},
		{name: "second result", event: events.NewRecognitionResult(sessionID, "y"), wantErr: ErrDuplicateResult, state: SessionListening},
		{name: "failure", event: events.NewRecognitionFailed(sessionID, errors.New("boom")), state: SessionListening},
		{name: "end", event: events.NewRecognitionEnded(sessionID), state: SessionIdle},
		{name: "second end", event: events.NewRecognitionEnded(sessionID), wantErr: ErrStaleSession, state: SessionIdle},
		{name: "result after end", event: events.NewRecognitionResult(sessionID, "z"), wantErr: ErrResultOutsideSession, state: SessionIdle},
	}

	for _, testCase := range testCases {
		if err := sessions.accept(testCase.event); !errors.Is(err, testCase.wantErr) {
			t.Fatalf("%s: expected %v, got %v", testCase.name, testCase.wantErr, err)
		}
		if got := sessions.State(); got != testCase.state {
			t.Fatalf("%s: expected state %s, got %s", testCase.name, testCase.state, got)
		}
	}
}

func TestRecognitionSessionsReportStateChangesOnce(t *testing.T) {
	sessions := newRecognitionSessions(speechtotext.Available(&recognizerStub{}), DefaultLanguage, func(events.Event) {})

	if _, changed := sessions.stateChange(); changed {
		t.Fatalf("expected no change right after construction")
	}
	if err := sessions.start(context.Background()); err != nil {
		t.Fatalf("expected start to succeed, got %v", err)
	}
	if state, changed := sessions.stateChange(); !changed || state != SessionListening {
		t.Fatalf("expected change to listening, got %s %t", state, changed)
	}
	if _, changed := sessions.stateChange(); changed {
		t.Fatalf("expected change to be reported once")
	}
}
