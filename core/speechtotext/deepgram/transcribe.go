package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keepAliveInterval = 5 * time.Second

func (r *Recognizer) Start(ctx context.Context, opts ...speechtotext.RecognitionOption) error {
	options := speechtotext.NewRecognitionOptions(opts...)
	if r.input != nil {
		options.EncodingInfo = r.input.EncodingInfo()
	}

	encoding, err := convertEncoding(options.EncodingInfo)
	if err != nil {
		return fmt.Errorf("invalid encoding: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		return ErrSessionActive
	}

	ctx, span := tracer.Start(ctx, "recognize utterance")
	span.SetAttributes(
		attribute.String("request.model", r.model),
		attribute.String("request.language", options.Language),
		attribute.Bool("request.continuous", options.Continuous),
	)

	conn, err := r.connectWebsocket(ctx, connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),
		language:   options.Language,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return fmt.Errorf("failed to open websocket: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &session{
		conn:    conn,
		options: options,
		span:    span,
		cancel:  cancel,
	}
	s.onEnd = func() { r.release(s) }
	r.session = s

	if r.input != nil {
		if err := r.input.StartCapture(sessionCtx, func(audio []byte) {
			if err := s.sendAudio(audio); err != nil && !s.stopping.Load() {
				logger.Debug("dropped audio chunk", "error", err)
			}
		}); err != nil {
			r.session = nil
			cancel()
			_ = conn.Close()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return fmt.Errorf("failed to start audio capture: %w", err)
		}
		s.stopCapture = r.input.StopCapture
	}

	go s.keepAlive(sessionCtx)
	go s.readAndProcessMessages()

	return nil
}

// Stop asks Deepgram to finish the stream. The session ends when the server
// closes the connection; if the request cannot be written the connection is
// closed locally instead.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()

	if s == nil {
		return nil
	}

	s.stopping.Store(true)
	if s.stopCapture != nil {
		if err := s.stopCapture(); err != nil {
			logger.Warn("failed to stop audio capture", "error", err)
		}
	}

	if err := s.writeJSON(controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		_ = s.conn.Close()
		return fmt.Errorf("failed to request deepgram stream close: %w", err)
	}
	return nil
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	language   string
}

func (r *Recognizer) connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	listenURL, err := url.Parse(r.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}

	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", r.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	// utterance_end_ms only works with interim results, which are ignored
	// when reading; only final results are delivered
	queryParams.Set("interim_results", "true")
	queryParams.Set("utterance_end_ms", "1000")
	queryParams.Set("endpointing", "300")
	queryParams.Set("vad_events", "true")
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := r.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + r.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type session struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	options speechtotext.RecognitionOptions
	span    trace.Span
	cancel  context.CancelFunc

	stopCapture func() error
	onEnd       func()

	accumulatedTranscript []string
	confidence            float64
	resultDelivered       bool
	failed                bool
	stopping              atomic.Bool
	lastAudio             atomic.Int64
	endOnce               sync.Once
}

type controlMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

func (s *session) sendAudio(audio []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.lastAudio.Store(time.Now().UnixNano())
	return s.conn.WriteMessage(websocket.BinaryMessage, audio)
}

func (s *session) writeJSON(msg any) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	return s.conn.WriteJSON(msg)
}

func (s *session) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// unblocks the reader when the caller's context goes away first
			s.stopping.Store(true)
			_ = s.conn.Close()
			return
		case <-ticker.C:
			if time.Since(time.Unix(0, s.lastAudio.Load())) < keepAliveInterval {
				continue
			}
			if err := s.writeJSON(controlMessage{Type: "KeepAlive"}); err != nil {
				logger.Debug("failed to write deepgram keep alive", "error", err)
			}
		}
	}
}

func (s *session) readAndProcessMessages() {
	for {
		msgType, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !s.stopping.Load() {
				s.fail(fmt.Errorf("deepgram connection lost: %w", err))
			} else if !s.failed {
				// speech finalised by CloseStream still counts as the utterance
				s.completeUtterance()
			}
			s.end()
			return
		}

		if msgType == websocket.BinaryMessage {
			continue
		}
		if done := s.processMessage(msg); done {
			s.stopping.Store(true)
			if s.stopCapture != nil {
				if err := s.stopCapture(); err != nil {
					logger.Warn("failed to stop audio capture", "error", err)
				}
			}
			if err := s.writeJSON(controlMessage{Type: string(api.TypeCloseStreamResponse)}); err != nil {
				_ = s.conn.Close()
			}
		}
	}
}

// processMessage reports whether the utterance is complete and the stream
// should be closed.
func (s *session) processMessage(msg []byte) bool {
	var parsedMsg controlMessage
	if err := json.Unmarshal(msg, &parsedMsg); err != nil {
		logger.Warn("failed to unmarshal deepgram message", "error", err)
		return false
	}

	switch api.TypeResponse(parsedMsg.Type) {
	case api.TypeMessageResponse:
		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			return false
		}
		if !msgResp.IsFinal {
			return false
		}
		if len(msgResp.Channel.Alternatives) > 0 {
			alternative := msgResp.Channel.Alternatives[0]
			if transcript := strings.TrimSpace(alternative.Transcript); transcript != "" {
				s.accumulatedTranscript = append(s.accumulatedTranscript, transcript)
				s.confidence = alternative.Confidence
			}
		}
		if msgResp.SpeechFinal {
			return s.completeUtterance()
		}

	case api.TypeUtteranceEndResponse:
		return s.completeUtterance()

	default:
		if parsedMsg.Type == "Error" {
			var errMsg errorMessage
			_ = json.Unmarshal(msg, &errMsg)
			s.fail(fmt.Errorf("deepgram error: %s %s", errMsg.Description, errMsg.Message))
			return true
		}
	}

	return false
}

func (s *session) completeUtterance() bool {
	if len(s.accumulatedTranscript) == 0 {
		return false
	}

	transcript := strings.Join(s.accumulatedTranscript, " ")
	s.accumulatedTranscript = nil

	if s.resultDelivered && !s.options.Continuous {
		return true
	}
	s.resultDelivered = true
	s.span.AddEvent("result", trace.WithAttributes(attribute.Int("result.length", len(transcript))))
	s.options.ResultCallback(speechtotext.Result{
		Alternatives: []speechtotext.Alternative{{Transcript: transcript, Confidence: s.confidence}},
	})

	return !s.options.Continuous
}

func (s *session) fail(err error) {
	s.failed = true
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
	s.options.ErrorCallback(err)
}

func (s *session) end() {
	s.endOnce.Do(func() {
		s.cancel()
		if s.stopCapture != nil && !s.stopping.Load() {
			if err := s.stopCapture(); err != nil {
				logger.Warn("failed to stop audio capture", "error", err)
			}
		}
		_ = s.conn.Close()
		s.onEnd()
		s.span.End()
		s.options.EndCallback()
	})
}
