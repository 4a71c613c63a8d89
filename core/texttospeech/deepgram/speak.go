package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type websocketMessage struct {
	Type string `json:"type"`
}

type speakMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func sendTextMsg(text string) speakMessage { return speakMessage{Type: "Speak", Text: text} }

// speak synthesises a single utterance and blocks until its audio has been
// played.
func (s *Speaker) speak(ctx context.Context, utterance texttospeech.Utterance) (err error) {
	ctx, span := tracer.Start(ctx, "speak utterance")
	defer span.End()
	voice := s.voiceFor(utterance.Language)
	span.SetAttributes(
		attribute.String("request.voice", string(voice)),
		attribute.String("request.language", utterance.Language),
		attribute.Int("request.length", len(utterance.Text)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	conn, err := s.connectWebsocket(ctx, voice, s.output.EncodingInfo())
	if err != nil {
		return fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	stopWatching := make(chan struct{})
	defer close(stopWatching)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stopWatching:
		}
	}()

	if err := conn.WriteJSON(sendTextMsg(utterance.Text)); err != nil {
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		return fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}

	audioBytes := 0
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("deepgram connection closed before flush: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) == 0 {
				continue
			}
			audioBytes += len(msg)
			if err := s.output.SendAudio(msg); err != nil {
				return fmt.Errorf("failed to play speech audio: %w", err)
			}
		case websocket.TextMessage:
			var parsedMsg websocketMessage
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Debug("failed to unmarshal deepgram message", "error", err)
				continue
			}
			if parsedMsg.Type != "Flushed" {
				continue
			}

			span.SetAttributes(attribute.Int("response.audio_bytes", audioBytes))
			_ = conn.WriteJSON(closeMsg)
			if err := s.output.AwaitMark(); err != nil {
				return fmt.Errorf("failed to await playback: %w", err)
			}
			return nil
		}
	}
}

func (s *Speaker) connectWebsocket(ctx context.Context, voice deepgramVoice, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	speakURL, err := url.Parse(s.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}

	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", string(voice))
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := s.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + s.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}
