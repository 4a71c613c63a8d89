package audio

import "context"

// Input is a microphone-like source of raw audio.
type Input interface {
	EncodingInfo() EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// Output is a speaker-like sink of raw audio.
//
// AwaitMark blocks until everything sent before the call has been played.
type Output interface {
	EncodingInfo() EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
}
