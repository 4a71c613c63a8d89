package deepgram

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/texttospeech"
)

func TestSpeakerPlaysUtterancesInSubmissionOrder(t *testing.T) {
	var requestsMu sync.Mutex
	var models []string
	server := newSpeakStub(t, func(conn *websocket.Conn, r *http.Request) {
		requestsMu.Lock()
		models = append(models, r.URL.Query().Get("model"))
		requestsMu.Unlock()

		text := awaitSpeak(t, conn)
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte(text))
		_ = conn.WriteJSON(websocketMessage{Type: "Flushed"})
	})
	defer server.Close()

	output := newRecordingOutput()
	speaker := newTestSpeaker(t, server, output)
	defer speaker.Close()

	for _, text := range []string{"first", "second", "third"} {
		if err := speaker.Speak(texttospeech.NewUtterance(text, "en-IN")); err != nil {
			t.Fatalf("expected speak to be accepted, got %v", err)
		}
	}

	output.awaitMarks(t, 3)

	if got := output.played(); strings.Join(got, ",") != "first,second,third" {
		t.Fatalf("expected utterances in submission order, got %v", got)
	}
	requestsMu.Lock()
	defer requestsMu.Unlock()
	for _, model := range models {
		if model != string(defaultVoice) {
			t.Fatalf("expected model %q, got %q", defaultVoice, model)
		}
	}
}

func TestSpeakerSpeakDoesNotBlockOnPlayback(t *testing.T) {
	release := make(chan struct{})
	server := newSpeakStub(t, func(conn *websocket.Conn, _ *http.Request) {
		awaitSpeak(t, conn)
		<-release
		_ = conn.WriteJSON(websocketMessage{Type: "Flushed"})
	})
	defer server.Close()
	defer close(release)

	speaker := newTestSpeaker(t, server, newRecordingOutput())
	defer speaker.Close()

	accepted := make(chan error, 1)
	go func() { accepted <- speaker.Speak(texttospeech.NewUtterance("slow", "en-IN")) }()

	select {
	case err := <-accepted:
		if err != nil {
			t.Fatalf("expected speak to be accepted, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("speak blocked on playback")
	}
}

func TestSpeakerRejectsAfterClose(t *testing.T) {
	server := newSpeakStub(t, func(*websocket.Conn, *http.Request) {})
	defer server.Close()

	speaker := newTestSpeaker(t, server, newRecordingOutput())
	if err := speaker.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if err := speaker.Speak(texttospeech.NewUtterance("late", "en-IN")); !errors.Is(err, ErrSpeakerClosed) {
		t.Fatalf("expected ErrSpeakerClosed, got %v", err)
	}
}

func TestNewSpeakerValidatesOptions(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")

	testCases := []struct {
		name    string
		output  audio.Output
		opts    []SpeakerOption
		wantErr error
	}{
		{name: "missing output", wantErr: ErrOutputMissing},
		{name: "missing api key", output: newRecordingOutput(), wantErr: ErrAPIKeyMissing},
		{name: "unknown voice", output: newRecordingOutput(), opts: []SpeakerOption{WithAPIKey("k"), WithVoice("robot")}, wantErr: ErrInvalidVoice},
		{name: "valid", output: newRecordingOutput(), opts: []SpeakerOption{WithAPIKey("k"), WithVoice("aura-luna-en")}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			speaker, err := NewSpeaker(testCase.output, testCase.opts...)
			if !errors.Is(err, testCase.wantErr) {
				t.Fatalf("expected %v, got %v", testCase.wantErr, err)
			}
			if speaker != nil {
				_ = speaker.Close()
			}
		})
	}
}

func TestSpeakerVoiceFollowsUtteranceLanguage(t *testing.T) {
	testCases := []struct {
		name      string
		opts      []SpeakerOption
		language  string
		wantModel string
	}{
		{name: "indian english", language: "en-IN", wantModel: string(defaultVoice)},
		{name: "spanish", language: "es-MX", wantModel: "aura-2-celeste-es"},
		{name: "no voice for language", language: "hi-IN", wantModel: string(defaultVoice)},
		{name: "configured voice wins", opts: []SpeakerOption{WithVoice("aura-luna-en")}, language: "es-ES", wantModel: "aura-luna-en"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			models := make(chan string, 1)
			server := newSpeakStub(t, func(conn *websocket.Conn, r *http.Request) {
				models <- r.URL.Query().Get("model")
				awaitSpeak(t, conn)
				_ = conn.WriteJSON(websocketMessage{Type: "Flushed"})
			})
			defer server.Close()

			output := newRecordingOutput()
			speaker := newTestSpeaker(t, server, output, testCase.opts...)
			defer speaker.Close()

			if err := speaker.Speak(texttospeech.NewUtterance("hola", testCase.language)); err != nil {
				t.Fatalf("expected speak to be accepted, got %v", err)
			}
			output.awaitMarks(t, 1)

			if got := <-models; got != testCase.wantModel {
				t.Fatalf("expected model %q, got %q", testCase.wantModel, got)
			}
		})
	}
}

func TestVoiceForLanguage(t *testing.T) {
	if voice, ok := VoiceForLanguage("ES-es"); !ok || voice.Language() != "es" {
		t.Fatalf("expected a spanish voice, got %q %t", voice, ok)
	}
	if _, ok := VoiceForLanguage("ta-IN"); ok {
		t.Fatalf("expected no voice for tamil")
	}
	if got := defaultVoice.Language(); got != "en" {
		t.Fatalf("expected default voice to speak en, got %q", got)
	}
}

func TestParseVoice(t *testing.T) {
	if voice, ok := ParseVoice("aura-2-thalia-en"); !ok || voice != defaultVoice {
		t.Fatalf("expected default voice to parse, got %q %t", voice, ok)
	}
	if _, ok := ParseVoice("nope"); ok {
		t.Fatalf("expected unknown voice to be rejected")
	}
}

type recordingOutput struct {
	mu      sync.Mutex
	pending []byte
	chunks  []string
	marks   chan struct{}
}

func newRecordingOutput() *recordingOutput {
	return &recordingOutput{marks: make(chan struct{}, 16)}
}

func (o *recordingOutput) EncodingInfo() audio.EncodingInfo { return audio.GetDefaultEncodingInfo() }

func (o *recordingOutput) SendAudio(audio []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, audio...)
	return nil
}

func (o *recordingOutput) ClearBuffer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
}

func (o *recordingOutput) AwaitMark() error {
	o.mu.Lock()
	o.chunks = append(o.chunks, string(o.pending))
	o.pending = nil
	o.mu.Unlock()
	o.marks <- struct{}{}
	return nil
}

func (o *recordingOutput) played() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.chunks...)
}

func (o *recordingOutput) awaitMarks(t *testing.T, n int) {
	t.Helper()
	for range n {
		select {
		case <-o.marks:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for playback")
		}
	}
}

func newSpeakStub(t *testing.T, handle func(conn *websocket.Conn, r *http.Request)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		handle(conn, r)
	}))
}

func newTestSpeaker(t *testing.T, server *httptest.Server, output audio.Output, opts ...SpeakerOption) *Speaker {
	t.Helper()
	speaker, err := NewSpeaker(output, append([]SpeakerOption{
		WithAPIKey("test-key"),
		WithSpeakURL("ws" + strings.TrimPrefix(server.URL, "http")),
	}, opts...)...)
	if err != nil {
		t.Fatalf("expected speaker to be created, got %v", err)
	}
	return speaker
}

// awaitSpeak reads until the Flush following a Speak message and returns the
// spoken text.
func awaitSpeak(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	var text string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return text
		}
		var parsed speakMessage
		if err := json.Unmarshal(msg, &parsed); err != nil {
			continue
		}
		switch parsed.Type {
		case "Speak":
			text = parsed.Text
		case "Flush":
			return text
		}
	}
}
