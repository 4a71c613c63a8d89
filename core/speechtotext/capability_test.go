package speechtotext

import (
	"context"
	"errors"
	"testing"
)

type recognizerStub struct{}

func (recognizerStub) Start(context.Context, ...RecognitionOption) error { return nil }
func (recognizerStub) Stop() error                                       { return nil }

func TestZeroCapabilityIsUnavailable(t *testing.T) {
	var capability Capability

	if capability.IsAvailable() {
		t.Fatalf("expected zero capability to be unavailable")
	}
	if !errors.Is(capability.Reason(), ErrNoRecognizer) {
		t.Fatalf("expected ErrNoRecognizer, got %v", capability.Reason())
	}
}

func TestAvailableWithNilRecognizerIsUnavailable(t *testing.T) {
	if Available(nil).IsAvailable() {
		t.Fatalf("expected nil recognizer to be unavailable")
	}
}

func TestDetect(t *testing.T) {
	openErr := errors.New("no microphone")

	testCases := []struct {
		name      string
		open      func() (Recognizer, error)
		available bool
		reason    error
	}{
		{name: "nil opener", open: nil, available: false, reason: ErrNoRecognizer},
		{name: "opener succeeds", open: func() (Recognizer, error) { return recognizerStub{}, nil }, available: true},
		{name: "opener fails", open: func() (Recognizer, error) { return nil, openErr }, available: false, reason: openErr},
		{name: "open returns nothing", open: func() (Recognizer, error) { return nil, nil }, available: false, reason: ErrNoRecognizer},
		{name: "opener panics", open: func() (Recognizer, error) { panic("boom") }, available: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			capability := Detect(testCase.open)

			if got := capability.IsAvailable(); got != testCase.available {
				t.Fatalf("expected available=%t, got %t", testCase.available, got)
			}
			if _, ok := capability.Recognizer(); ok != testCase.available {
				t.Fatalf("expected recognizer presence %t, got %t", testCase.available, ok)
			}
			if testCase.available && capability.Reason() != nil {
				t.Fatalf("expected no reason for available capability, got %v", capability.Reason())
			}
			if !testCase.available && capability.Reason() == nil {
				t.Fatalf("expected a reason for unavailable capability")
			}
			if testCase.reason != nil && !errors.Is(capability.Reason(), testCase.reason) {
				t.Fatalf("expected reason to wrap %v, got %v", testCase.reason, capability.Reason())
			}
		})
	}
}

func TestNewRecognitionOptionsDefaults(t *testing.T) {
	options := NewRecognitionOptions()

	if options.Language != DefaultLanguage {
		t.Fatalf("expected default language %q, got %q", DefaultLanguage, options.Language)
	}
	if options.InterimResults || options.Continuous {
		t.Fatalf("expected single-utterance final-only defaults, got %+v", options)
	}

	options.ResultCallback(NewResult("noop"))
	options.ErrorCallback(errors.New("noop"))
	options.EndCallback()
}

func TestResultBestTrimsTranscript(t *testing.T) {
	if got := NewResult("  hello there ").Best(); got != "hello there" {
		t.Fatalf("expected trimmed transcript, got %q", got)
	}
	if got := (Result{}).Best(); got != "" {
		t.Fatalf("expected empty transcript for empty result, got %q", got)
	}
}
