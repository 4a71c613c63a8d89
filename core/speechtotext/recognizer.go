package speechtotext

import (
	"context"
	"strings"
)

// Recognizer is a platform speech-to-text capability. A single Recognizer
// is reused across many sessions; it never runs two at once.
type Recognizer interface {
	// Start begins capturing a single utterance. Callbacks supplied through
	// opts belong to this session only.
	Start(ctx context.Context, opts ...RecognitionOption) error
	// Stop asks the platform to end the current session early. The session's
	// EndCallback fires once the platform has wound down.
	Stop() error
}

// Alternative is one recognition hypothesis.
type Alternative struct {
	Transcript string
	Confidence float64
}

// Result is a final recognition result. Alternatives are ordered best first.
type Result struct {
	Alternatives []Alternative
}

func NewResult(transcript string) Result {
	return Result{Alternatives: []Alternative{{Transcript: transcript, Confidence: 1}}}
}

// Best returns the trimmed transcript of the best alternative.
func (r Result) Best() string {
	if len(r.Alternatives) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Alternatives[0].Transcript)
}
