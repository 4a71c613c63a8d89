package orchestration

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/koscakluka/ema-voice/core/events"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Orchestrator runs voice turns: a recognised utterance is recorded as a user
// message, answered by the response generator, recorded as an assistant
// message and handed to speech output.
//
// Platform callbacks only enqueue events. A single dispatch loop, started by
// [Orchestrator.Orchestrate], drains them in order, so no two turns ever
// interleave.
type Orchestrator struct {
	conversation *ConversationLog
	sessions     *recognitionSessions
	speechOutput *speechOutput
	generator    ResponseGenerator

	recognitionCapability speechtotext.Capability
	speaker               texttospeech.Speaker
	language              string
	fallbackReply         string
	queueSize             int

	queue     chan events.Event
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
	started   atomic.Bool
	loopDone  chan struct{}
	turnMu    sync.Mutex

	mu          sync.RWMutex
	baseContext context.Context
	cancel      context.CancelFunc
	emitEvent   eventEmitter
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		conversation:          NewConversationLog(),
		generator:             PlaceholderResponder{},
		recognitionCapability: speechtotext.Unavailable(speechtotext.ErrNoRecognizer),
		language:              DefaultLanguage,
		fallbackReply:         DefaultFallbackReply,
		queueSize:             defaultEventQueueSize,
		closed:                make(chan struct{}),
		loopDone:              make(chan struct{}),
		baseContext:           context.Background(),
		emitEvent:             noopEventEmitter,
	}

	for _, opt := range opts {
		opt(o)
	}

	o.queue = make(chan events.Event, o.queueSize)
	o.sessions = newRecognitionSessions(o.recognitionCapability, o.language, o.enqueue)
	o.speechOutput = newSpeechOutput(o.speaker, o.language)

	return o
}

// Orchestrate starts the dispatch loop that reacts to recognition events.
//
// ctx is the base context for response generation and speech output.
// Cancelling it closes the orchestrator. Only the first call has any effect.
func (o *Orchestrator) Orchestrate(ctx context.Context, opts ...OrchestrateOption) {
	if o.isClosed() {
		logger.Warn("orchestrator already closed, skipping Orchestrate")
		return
	}
	if !o.started.CompareAndSwap(false, true) {
		logger.Warn("orchestrator already running, skipping Orchestrate")
		return
	}

	options := OrchestrateOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	o.mu.Lock()
	o.baseContext, o.cancel = context.WithCancel(ctx)
	o.emitEvent = newCallbackEventEmitter(options)
	baseContext := o.baseContext
	o.mu.Unlock()

	go func() {
		defer close(o.loopDone)
		if err := panicSafeNamedWorker("dispatch", o.dispatch)(baseContext); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event dispatch stopped", "error", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = o.Close()
		case <-o.closed:
		}
	}()
}

// Close stops the dispatch loop, ends any active recognition session and
// closes the configured platform clients. Events still queued are dropped.
func (o *Orchestrator) Close() error {
	o.closeOnce.Do(func() {
		close(o.closed)

		o.mu.RLock()
		cancel := o.cancel
		o.mu.RUnlock()
		if cancel != nil {
			cancel()
		}
		if o.started.Load() {
			<-o.loopDone
		}

		var errs []error
		if err := o.sessions.close(); err != nil {
			errs = append(errs, err)
		}
		if err := o.speechOutput.close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close text-to-speech client: %w", err))
		}
		if err := closeClient(o.generator); err != nil {
			errs = append(errs, fmt.Errorf("failed to close response generator: %w", err))
		}
		o.closeErr = errors.Join(errs...)
	})

	return o.closeErr
}

// StartListening opens a recognition session for a single utterance.
//
// It returns an error wrapping [ErrCapabilityUnavailable] when no recognizer
// exists and [ErrAlreadyListening] when a session is active; both leave the
// state untouched. ctx bounds the platform session, so it should outlive the
// utterance.
func (o *Orchestrator) StartListening(ctx context.Context) error {
	if o.isClosed() {
		return ErrOrchestratorClosed
	}

	ctx, span := tracer.Start(ctx, "start listening")
	defer span.End()
	span.SetAttributes(attribute.String("request.language", o.language))

	if err := o.sessions.start(ctx); err != nil {
		switch {
		case errors.Is(err, ErrCapabilityUnavailable), errors.Is(err, ErrAlreadyListening):
			logger.Info("start listening ignored", "reason", err)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("failed to start listening", "error", err)
		}
		return err
	}

	return nil
}

// StopListening ends the active session, if any. The state becomes idle once
// the end of the session is dispatched, even when the platform fails to stop.
func (o *Orchestrator) StopListening() error {
	if err := o.sessions.stop(); err != nil {
		logger.Warn("platform failed to stop recognition", "error", err)
		return err
	}
	return nil
}

// TestOutput speaks text without touching the conversation log.
func (o *Orchestrator) TestOutput(text string) error {
	if o.isClosed() {
		return ErrOrchestratorClosed
	}

	if failure := o.speechOutput.speak(o.context(), text); failure != nil {
		o.notify(events.NewSpeechFailed(text, failure.Err))
		return failure
	}
	o.notify(events.NewSpeechRequested(text))
	return nil
}

// Conversation returns the conversation log as it is right now.
func (o *Orchestrator) Conversation() iter.Seq[Message] {
	return o.conversation.Entries()
}

func (o *Orchestrator) SessionState() SessionState {
	return o.sessions.State()
}

func (o *Orchestrator) RecognitionAvailable() bool {
	return o.recognitionCapability.IsAvailable()
}

func (o *Orchestrator) isClosed() bool {
	select {
	case <-o.closed:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) context() context.Context {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.baseContext
}

// enqueue blocks until the event is queued or the orchestrator closes.
func (o *Orchestrator) enqueue(event events.Event) {
	select {
	case o.queue <- event:
	case <-o.closed:
	}
}

// notify queues informational events without blocking the caller.
func (o *Orchestrator) notify(event events.Event) {
	select {
	case o.queue <- event:
	default:
		logger.Debug("event queue full, dropping notification", "kind", string(event.Kind()))
	}
}
