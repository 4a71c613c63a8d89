package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{"-env-file", writeEnvFile(t, "")}, lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "en-IN", cfg.Language)
	assert.Equal(t, BackendMiniaudio, cfg.AudioBackend)
	assert.Equal(t, 1024, cfg.AudioBufferSize)
	assert.Equal(t, "ema-voice", cfg.ServiceName)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.Empty(t, cfg.GroqAPIKey)
}

func TestLoadPrecedence(t *testing.T) {
	envFile := writeEnvFile(t, "EMA_LANGUAGE=en-US\nEMA_VOICE=aura-luna-en\nGROQ_API_KEY=from-file\n")
	env := map[string]string{
		"EMA_LANGUAGE": "en-GB",
		"GROQ_API_KEY": "",
	}

	cfg, err := Load([]string{"-env-file", envFile, "-voice", "aura-orion-en"}, lookupFrom(env))
	require.NoError(t, err)

	assert.Equal(t, "en-GB", cfg.Language, "environment wins over the dotenv file")
	assert.Equal(t, "aura-orion-en", cfg.Voice, "flags win over everything")
	assert.Equal(t, "from-file", cfg.GroqAPIKey, "empty environment values fall through")
}

func TestLoadMissingDefaultEnvFileIsIgnored(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load(nil, lookupFrom(nil))
	require.NoError(t, err)
}

func TestLoadMissingExplicitEnvFileFails(t *testing.T) {
	_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")}, lookupFrom(nil))
	require.Error(t, err)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	envFile := writeEnvFile(t, "")

	_, err := Load([]string{"-env-file", envFile, "-audio", "alsa"}, lookupFrom(nil))
	require.ErrorIs(t, err, ErrInvalidBackend)

	_, err = Load([]string{"-env-file", envFile, "-language", ""}, lookupFrom(nil))
	require.ErrorIs(t, err, ErrEmptyLanguage)

	_, err = Load([]string{"-env-file", envFile, "-buffer-size", "0"}, lookupFrom(nil))
	require.Error(t, err)

	_, err = Load([]string{"-unknown"}, lookupFrom(nil))
	require.Error(t, err)
}

func TestLoadPortaudioBuffer(t *testing.T) {
	cfg, err := Load([]string{"-env-file", writeEnvFile(t, ""), "-audio", "portaudio", "-buffer-size", "512"}, lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, BackendPortaudio, cfg.AudioBackend)
	assert.Equal(t, 512, cfg.AudioBufferSize)
}
