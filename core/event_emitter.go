package orchestration

import events "github.com/koscakluka/ema-voice/core/events"

type eventEmitter func(events.Event)

func noopEventEmitter(events.Event) {}

func newCallbackEventEmitter(opts OrchestrateOptions) eventEmitter {
	return func(event events.Event) {
		switch typedEvent := event.(type) {
		case events.MessageAppended:
			if opts.onMessage != nil {
				opts.onMessage(Message{ID: typedEvent.ID, Role: Role(typedEvent.Role), Content: typedEvent.Content})
			}
		case events.RecognitionStateChanged:
			if opts.onSessionState != nil {
				state := SessionIdle
				if typedEvent.Listening {
					state = SessionListening
				}
				opts.onSessionState(state)
			}
		case events.RecognitionFailed:
			if opts.onRecognitionError != nil {
				opts.onRecognitionError(&RecognitionError{SessionID: typedEvent.SessionID, Err: typedEvent.Err})
			}
		case events.SpeechRequested:
			if opts.onSpeech != nil {
				opts.onSpeech(typedEvent.Text, nil)
			}
		case events.SpeechFailed:
			if opts.onSpeech != nil {
				opts.onSpeech(typedEvent.Text, &OutputFailure{Text: typedEvent.Text, Err: typedEvent.Err})
			}
		}
	}
}
