package orchestration

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrCapabilityUnavailable = errors.New("speech recognition unavailable")
	ErrAlreadyListening      = errors.New("recognition session already active")
	ErrResultOutsideSession  = errors.New("recognition event outside of a listening session")
	ErrDuplicateResult       = errors.New("recognition session already delivered a result")
	ErrStaleSession          = errors.New("recognition event from an ended session")
	ErrOrchestratorClosed    = errors.New("orchestrator closed")
	ErrSpeakerMissing        = errors.New("speech output not configured")
)

// RecognitionError is a platform failure bound to a recognition session.
type RecognitionError struct {
	SessionID uuid.UUID
	Err       error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition session %s failed: %v", e.SessionID, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// OutputFailure reports text the speech output could not vocalise.
type OutputFailure struct {
	Text string
	Err  error
}

func (e *OutputFailure) Error() string {
	return fmt.Sprintf("failed to speak %d characters: %v", len(e.Text), e.Err)
}

func (e *OutputFailure) Unwrap() error { return e.Err }
