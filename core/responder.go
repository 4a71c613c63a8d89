package orchestration

import "context"

// PlaceholderReply is what [PlaceholderResponder] answers with.
const PlaceholderReply = "🤖 AI response will appear here (model not integrated yet)."

// DefaultFallbackReply is recorded as the assistant message when the
// response generator fails.
const DefaultFallbackReply = "Sorry, I couldn't come up with a response just now."

// ResponseGenerator produces the assistant reply for a user transcript.
//
// Generate is called synchronously within a turn; the assistant message is
// not appended until it returns.
type ResponseGenerator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

type PlaceholderResponder struct{}

func (PlaceholderResponder) Generate(context.Context, string) (string, error) {
	return PlaceholderReply, nil
}

// ResponseGeneratorFunc adapts a plain function to [ResponseGenerator].
type ResponseGeneratorFunc func(ctx context.Context, transcript string) (string, error)

func (f ResponseGeneratorFunc) Generate(ctx context.Context, transcript string) (string, error) {
	return f(ctx, transcript)
}
