package orchestration

import (
	"context"

	"github.com/koscakluka/ema-voice/core/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func (o *Orchestrator) dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.closed:
			return nil
		case event := <-o.queue:
			handle := panicSafeNamedWorker(string(event.Kind()), func(ctx context.Context) error {
				o.handleEvent(ctx, event)
				return nil
			})
			if err := handle(ctx); err != nil {
				logger.Error("failed to handle event", "kind", string(event.Kind()), "error", err)
			}
		}
	}
}

func (o *Orchestrator) handleEvent(ctx context.Context, event events.Event) {
	defer o.notifySessionState()

	switch typedEvent := event.(type) {
	case events.RecognitionEvent:
		o.handleRecognitionEvent(ctx, typedEvent)
	default:
		o.emitEvent(event)
	}
}

func (o *Orchestrator) handleRecognitionEvent(ctx context.Context, event events.RecognitionEvent) {
	if err := o.sessions.accept(event); err != nil {
		logger.Warn("rejected recognition event",
			"kind", string(event.Kind()),
			"session", event.Session().String(),
			"error", err,
		)
		return
	}

	switch typedEvent := event.(type) {
	case events.RecognitionResult:
		o.processTurn(ctx, typedEvent.Transcript)
	case events.RecognitionFailed:
		err := &RecognitionError{SessionID: typedEvent.SessionID, Err: typedEvent.Err}
		logger.Error("recognition failed", "error", err)
		o.emitEvent(typedEvent)
	}
}

func (o *Orchestrator) notifySessionState() {
	if state, changed := o.sessions.stateChange(); changed {
		o.emitEvent(events.NewRecognitionStateChanged(state == SessionListening))
	}
}

// processTurn records the user message and its reply as one unit and then
// hands the reply to speech output.
func (o *Orchestrator) processTurn(ctx context.Context, transcript string) {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()

	assistant := o.recordTurn(ctx, transcript)
	span.SetAttributes(attribute.Int64("turn.assistant_id", assistant.ID))

	if failure := o.speechOutput.speak(ctx, assistant.Content); failure != nil {
		o.emitEvent(events.NewSpeechFailed(assistant.Content, failure.Err))
		return
	}
	o.emitEvent(events.NewSpeechRequested(assistant.Content))
}

func (o *Orchestrator) recordTurn(ctx context.Context, transcript string) Message {
	o.turnMu.Lock()
	defer o.turnMu.Unlock()

	user := o.conversation.Append(RoleUser, transcript)
	o.emitEvent(events.NewMessageAppended(user.ID, string(user.Role), user.Content))

	assistant := o.conversation.Append(RoleAssistant, o.generate(ctx, transcript))
	o.emitEvent(events.NewMessageAppended(assistant.ID, string(assistant.Role), assistant.Content))

	return assistant
}

// generate never fails: generator errors and panics are replaced by the
// fallback reply.
func (o *Orchestrator) generate(ctx context.Context, transcript string) string {
	ctx, span := tracer.Start(ctx, "generate response")
	defer span.End()

	var reply string
	err := panicSafeNamedWorker("response generator", func(ctx context.Context) error {
		var err error
		reply, err = o.generator.Generate(ctx, transcript)
		return err
	})(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("failed to generate response, using fallback reply", "error", err)
		return o.fallbackReply
	}

	span.SetAttributes(attribute.Int("response.length", len(reply)))
	return reply
}
