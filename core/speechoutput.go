package orchestration

import (
	"context"

	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// speechOutput hands text to the platform speaker. It never queues, cancels
// or retries; ordering and playback belong to the platform.
type speechOutput struct {
	speaker  texttospeech.Speaker
	language string
}

func newSpeechOutput(speaker texttospeech.Speaker, language string) *speechOutput {
	return &speechOutput{speaker: speaker, language: language}
}

// speak returns a non-nil *OutputFailure when the text could not be handed
// over. Callers log it and move on.
func (s *speechOutput) speak(ctx context.Context, text string) *OutputFailure {
	_, span := tracer.Start(ctx, "speak")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.language", s.language),
		attribute.Int("request.length", len(text)),
	)

	var failure *OutputFailure
	if s.speaker == nil {
		failure = &OutputFailure{Text: text, Err: ErrSpeakerMissing}
	} else if err := s.speaker.Speak(texttospeech.NewUtterance(text, s.language)); err != nil {
		failure = &OutputFailure{Text: text, Err: err}
	}

	if failure != nil {
		span.RecordError(failure)
		span.SetStatus(codes.Error, failure.Error())
		logger.Warn("speech output failed", "error", failure.Err, "length", len(text))
	}
	return failure
}

func (s *speechOutput) close() error {
	if s.speaker == nil {
		return nil
	}
	return closeClient(s.speaker)
}
