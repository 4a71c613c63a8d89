// Package events defines the typed event contract between platform
// capabilities and the turn orchestrator.
//
// Platform callbacks never mutate orchestrator state directly. They are
// converted into the events below and queued on a single channel that the
// orchestrator drains in order.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - recognition.*
//   - conversation.*
//   - speech_output.*
//
// recognition events
//
//   - RecognitionStarted (recognition.started): a session was accepted.
//   - RecognitionResult (recognition.result): the final transcript of the
//     session's single utterance.
//   - RecognitionFailed (recognition.failed): the platform reported a
//     mid-session failure. An end always follows.
//   - RecognitionEnded (recognition.ended): the session is over.
//   - RecognitionStateChanged (recognition.state_changed): the observed
//     listening state changed.
//
// conversation events
//
//   - MessageAppended (conversation.message_appended): an entry was appended
//     to the conversation log.
//
// speech_output events
//
//   - SpeechRequested (speech_output.requested): text was handed to the
//     speaker.
//   - SpeechFailed (speech_output.failed): the speaker rejected the text or
//     is missing.
package events
