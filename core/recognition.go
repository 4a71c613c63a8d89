package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
)

type SessionState int

const (
	SessionIdle SessionState = iota
	SessionListening
)

func (s SessionState) String() string {
	switch s {
	case SessionListening:
		return "listening"
	default:
		return "idle"
	}
}

// recognitionSessions owns the single recognition session of an
// orchestrator. Platform callbacks never touch its state; they are turned
// into events bound to the session id they were registered for, and the
// dispatch loop hands those back through accept.
type recognitionSessions struct {
	capability speechtotext.Capability
	language   string

	mu           sync.Mutex
	state        SessionState
	activeID     uuid.UUID
	resultSeen   bool
	lastNotified SessionState

	starting      bool
	stopRequested bool
	// rolledBack marks a failed start whose end event is still queued
	rolledBack bool

	enqueue func(events.Event)
}

func newRecognitionSessions(capability speechtotext.Capability, language string, enqueue func(events.Event)) *recognitionSessions {
	return &recognitionSessions{
		capability: capability,
		language:   language,
		enqueue:    enqueue,
	}
}

func (s *recognitionSessions) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// start opens a single-utterance session. ctx bounds the platform session.
//
// The session is marked listening before the platform is asked to start, so
// the platform call runs without holding the lock. A stop requested while the
// platform is starting is applied once it has started.
func (s *recognitionSessions) start(ctx context.Context) error {
	recognizer, ok := s.capability.Recognizer()
	if !ok {
		return fmt.Errorf("%w: %w", ErrCapabilityUnavailable, s.capability.Reason())
	}

	s.mu.Lock()
	if s.state == SessionListening {
		s.mu.Unlock()
		return ErrAlreadyListening
	}
	sessionID := uuid.New()
	s.activeID = sessionID
	s.state = SessionListening
	s.resultSeen = false
	s.starting = true
	s.stopRequested = false
	s.rolledBack = false
	s.mu.Unlock()

	// queued before the platform can call back with this session id
	s.enqueue(events.NewRecognitionStarted(sessionID))

	err := recognizer.Start(ctx,
		speechtotext.WithLanguage(s.language),
		speechtotext.WithInterimResults(false),
		speechtotext.WithContinuous(false),
		speechtotext.WithResultCallback(func(result speechtotext.Result) {
			s.enqueue(events.NewRecognitionResult(sessionID, result.Best()))
		}),
		speechtotext.WithErrorCallback(func(err error) {
			s.enqueue(events.NewRecognitionFailed(sessionID, err))
		}),
		speechtotext.WithEndCallback(func() {
			s.enqueue(events.NewRecognitionEnded(sessionID))
		}),
	)

	s.mu.Lock()
	s.starting = false
	stopRequested := s.stopRequested && s.activeID == sessionID
	if err != nil {
		if s.activeID == sessionID && s.state == SessionListening {
			s.state = SessionIdle
			s.rolledBack = true
		}
		s.mu.Unlock()
		// lets the dispatcher report the return to idle
		s.enqueue(events.NewRecognitionEnded(sessionID))
		return &RecognitionError{SessionID: sessionID, Err: err}
	}
	s.mu.Unlock()

	if stopRequested {
		if err := s.stopPlatform(recognizer, sessionID); err != nil {
			logger.Warn("platform failed to stop recognition after start", "error", err)
		}
	}
	return nil
}

// stop asks the platform to end the active session. If the platform refuses,
// the end notification is produced here so the session still returns to
// idle.
func (s *recognitionSessions) stop() error {
	s.mu.Lock()
	if s.state != SessionListening {
		s.mu.Unlock()
		return nil
	}
	if s.starting {
		s.stopRequested = true
		s.mu.Unlock()
		return nil
	}
	sessionID := s.activeID
	s.mu.Unlock()

	recognizer, ok := s.capability.Recognizer()
	if !ok {
		s.enqueue(events.NewRecognitionEnded(sessionID))
		return nil
	}
	return s.stopPlatform(recognizer, sessionID)
}

func (s *recognitionSessions) stopPlatform(recognizer speechtotext.Recognizer, sessionID uuid.UUID) error {
	if err := recognizer.Stop(); err != nil {
		s.enqueue(events.NewRecognitionEnded(sessionID))
		return &RecognitionError{SessionID: sessionID, Err: fmt.Errorf("failed to stop recognition: %w", err)}
	}
	return nil
}

// accept validates a recognition event against the session contract and
// applies its state transition. At most one result and exactly one end are
// accepted per session.
func (s *recognitionSessions) accept(event events.RecognitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Session() != s.activeID {
		return ErrStaleSession
	}

	switch event.(type) {
	case events.RecognitionStarted:
		return nil
	case events.RecognitionResult:
		if s.state != SessionListening {
			return ErrResultOutsideSession
		}
		if s.resultSeen {
			return ErrDuplicateResult
		}
		s.resultSeen = true
	case events.RecognitionFailed:
		if s.state != SessionListening {
			return ErrResultOutsideSession
		}
	case events.RecognitionEnded:
		if s.state != SessionListening {
			if s.rolledBack {
				s.rolledBack = false
				return nil
			}
			return ErrStaleSession
		}
		s.state = SessionIdle
	default:
		return fmt.Errorf("unknown recognition event %q", event.Kind())
	}

	return nil
}

// reset forces the session to idle without waiting for the platform.
func (s *recognitionSessions) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionIdle
	s.activeID = uuid.Nil
	s.stopRequested = false
	s.rolledBack = false
}

// stateChange reports the current state if it differs from the one last
// reported.
func (s *recognitionSessions) stateChange() (SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == s.lastNotified {
		return s.state, false
	}
	s.lastNotified = s.state
	return s.state, true
}

func (s *recognitionSessions) close() error {
	recognizer, ok := s.capability.Recognizer()
	if !ok {
		return nil
	}

	var errs []error
	if err := s.stop(); err != nil {
		errs = append(errs, err)
	}
	s.reset()
	if err := closeClient(recognizer); err != nil {
		errs = append(errs, fmt.Errorf("failed to close speech-to-text client: %w", err))
	}
	return errors.Join(errs...)
}
