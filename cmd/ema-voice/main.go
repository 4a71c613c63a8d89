// Command ema-voice is a terminal voice assistant: press space, say
// something, and the reply is added to the conversation and read out loud.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/contrib/bridges/otelslog"

	orchestration "github.com/koscakluka/ema-voice/core"
	"github.com/koscakluka/ema-voice/core/audio"
	"github.com/koscakluka/ema-voice/core/audio/miniaudio"
	"github.com/koscakluka/ema-voice/core/audio/portaudio"
	"github.com/koscakluka/ema-voice/core/llms/groq"
	"github.com/koscakluka/ema-voice/core/speechtotext"
	sttdeepgram "github.com/koscakluka/ema-voice/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-voice/core/texttospeech"
	ttsdeepgram "github.com/koscakluka/ema-voice/core/texttospeech/deepgram"
	"github.com/koscakluka/ema-voice/core/tools"
	"github.com/koscakluka/ema-voice/internal/config"
	"github.com/koscakluka/ema-voice/internal/telemetry"
)

var logger = otelslog.NewLogger("github.com/koscakluka/ema-voice/cmd/ema-voice")

type audioDevice interface {
	audio.Input
	audio.Output
	Close() error
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ema-voice:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnvironment()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("failed to shut down telemetry", "error", err)
		}
	}()

	device, err := openAudio(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := device.Close(); err != nil {
			logger.Error("failed to close audio device", "error", err)
		}
	}()

	orchestrator := orchestration.NewOrchestrator(
		orchestration.WithSpeechToText(detectRecognition(cfg, device)),
		orchestration.WithTextToSpeech(newSpeaker(cfg, device)),
		orchestration.WithResponseGenerator(newResponder(cfg)),
		orchestration.WithLanguage(cfg.Language),
	)
	defer func() {
		if err := orchestrator.Close(); err != nil {
			logger.Error("failed to close orchestrator", "error", err)
		}
	}()

	program := tea.NewProgram(newModel(ctx, orchestrator), tea.WithAltScreen(), tea.WithContext(ctx))

	orchestrator.Orchestrate(ctx,
		orchestration.WithMessageCallback(func(message orchestration.Message) {
			program.Send(messageAppendedMsg{message: message})
		}),
		orchestration.WithSessionStateCallback(func(state orchestration.SessionState) {
			program.Send(sessionStateMsg{state: state})
		}),
		orchestration.WithRecognitionErrorCallback(func(err *orchestration.RecognitionError) {
			program.Send(statusMsg{text: fmt.Sprintf("Speech recognition error: %v", err.Err), isErr: true})
		}),
		orchestration.WithSpeechCallback(func(_ string, err error) {
			if err != nil {
				program.Send(statusMsg{text: fmt.Sprintf("Voice output failed: %v", err), isErr: true})
			}
		}),
	)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run terminal UI: %w", err)
	}
	return nil
}

func openAudio(cfg config.Config) (audioDevice, error) {
	switch cfg.AudioBackend {
	case config.BackendPortaudio:
		client, err := portaudio.NewClient(cfg.AudioBufferSize)
		if err != nil {
			return nil, fmt.Errorf("failed to open portaudio: %w", err)
		}
		return client, nil
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to open miniaudio: %w", err)
		}
		return client, nil
	}
}

func detectRecognition(cfg config.Config, input audio.Input) speechtotext.Capability {
	capability := speechtotext.Detect(func() (speechtotext.Recognizer, error) {
		return sttdeepgram.NewRecognizer(
			sttdeepgram.WithAPIKey(cfg.DeepgramAPIKey),
			sttdeepgram.WithAudioInput(input),
		)
	})
	if !capability.IsAvailable() {
		logger.Warn("speech recognition disabled", "reason", capability.Reason())
	}
	return capability
}

func newSpeaker(cfg config.Config, output audio.Output) texttospeech.Speaker {
	opts := []ttsdeepgram.SpeakerOption{ttsdeepgram.WithAPIKey(cfg.DeepgramAPIKey)}
	if cfg.Voice != "" {
		voice, ok := ttsdeepgram.ParseVoice(cfg.Voice)
		if !ok {
			logger.Warn("unknown voice, using the default", "voice", cfg.Voice)
		} else {
			opts = append(opts, ttsdeepgram.WithVoice(voice))
		}
	}

	speaker, err := ttsdeepgram.NewSpeaker(output, opts...)
	if err != nil {
		logger.Warn("voice output disabled", "error", err)
		return nil
	}
	return speaker
}

func newResponder(cfg config.Config) orchestration.ResponseGenerator {
	if cfg.GroqAPIKey == "" {
		logger.Info("no groq api key, replies are placeholders")
		return orchestration.PlaceholderResponder{}
	}

	responder, err := groq.NewResponder(
		groq.WithAPIKey(cfg.GroqAPIKey),
		groq.WithModel(cfg.GroqModel),
		groq.WithTools(tools.FeeSubmissionGuide(), tools.Weather()),
	)
	if err != nil {
		logger.Warn("falling back to placeholder replies", "error", err)
		return orchestration.PlaceholderResponder{}
	}
	return responder
}
