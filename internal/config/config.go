// Package config resolves settings for the ema-voice binary from command
// line flags, the process environment and an optional .env file, in that
// order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile     = ".env"
	defaultLanguage    = "en-IN"
	defaultServiceName = "ema-voice"

	BackendMiniaudio = "miniaudio"
	BackendPortaudio = "portaudio"
)

var (
	ErrInvalidBackend = errors.New("invalid audio backend")
	ErrEmptyLanguage  = errors.New("language must not be empty")
)

var audioBackends = []string{BackendMiniaudio, BackendPortaudio}

type Config struct {
	DeepgramAPIKey string
	GroqAPIKey     string
	GroqModel      string
	Language       string
	Voice          string
	AudioBackend   string
	// AudioBufferSize is the portaudio frames per buffer.
	AudioBufferSize int

	OTLPEndpoint string
	ServiceName  string
}

type setting struct {
	env    string
	flag   string
	usage  string
	target *string
	value  string
}

// Load parses args (without the program name) and resolves every setting.
// lookupEnv is usually os.LookupEnv.
func Load(args []string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Config{
		Language:        defaultLanguage,
		AudioBackend:    BackendMiniaudio,
		AudioBufferSize: 1024,
		ServiceName:     defaultServiceName,
	}

	settings := []*setting{
		{env: "DEEPGRAM_API_KEY", target: &cfg.DeepgramAPIKey},
		{env: "GROQ_API_KEY", target: &cfg.GroqAPIKey},
		{env: "EMA_GROQ_MODEL", flag: "model", usage: "Groq model used for replies", target: &cfg.GroqModel},
		{env: "EMA_LANGUAGE", flag: "language", usage: "BCP 47 locale for recognition and speech", target: &cfg.Language},
		{env: "EMA_VOICE", flag: "voice", usage: "Deepgram Aura voice", target: &cfg.Voice},
		{env: "EMA_AUDIO_BACKEND", flag: "audio", usage: "audio backend: miniaudio or portaudio", target: &cfg.AudioBackend},
		{env: "OTEL_EXPORTER_OTLP_ENDPOINT", flag: "otlp-endpoint", usage: "OTLP/HTTP trace endpoint, tracing is off when empty", target: &cfg.OTLPEndpoint},
		{env: "OTEL_SERVICE_NAME", target: &cfg.ServiceName},
	}

	flags := flag.NewFlagSet("ema-voice", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	envFile := flags.String("env-file", defaultEnvFile, "dotenv file to read")
	for _, s := range settings {
		if s.flag != "" {
			flags.StringVar(&s.value, s.flag, "", s.usage)
		}
	}
	bufferSize := flags.Int("buffer-size", cfg.AudioBufferSize, "portaudio frames per buffer")
	if err := flags.Parse(args); err != nil {
		return Config{}, fmt.Errorf("failed to parse flags: %w", err)
	}

	explicit := map[string]bool{}
	flags.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	dotenv, err := godotenv.Read(*envFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit["env-file"] {
			return Config{}, fmt.Errorf("failed to read %s: %w", *envFile, err)
		}
		dotenv = map[string]string{}
	}

	for _, s := range settings {
		switch {
		case s.flag != "" && explicit[s.flag]:
			*s.target = s.value
		default:
			if value, ok := lookupEnv(s.env); ok && value != "" {
				*s.target = value
			} else if value, ok := dotenv[s.env]; ok && value != "" {
				*s.target = value
			}
		}
	}
	if explicit["buffer-size"] {
		cfg.AudioBufferSize = *bufferSize
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnvironment is Load with the process arguments and environment.
func FromEnvironment() (Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

func (c Config) Validate() error {
	var errs []error
	if !slices.Contains(audioBackends, c.AudioBackend) {
		errs = append(errs, fmt.Errorf("%w %q, expected one of %v", ErrInvalidBackend, c.AudioBackend, audioBackends))
	}
	if c.Language == "" {
		errs = append(errs, ErrEmptyLanguage)
	}
	if c.AudioBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("audio buffer size must be positive, got %d", c.AudioBufferSize))
	}
	return errors.Join(errs...)
}
