package deepgram

import "strings"

type deepgramVoice string

const defaultVoice deepgramVoice = "aura-2-thalia-en"

var availableVoices = []deepgramVoice{
	"aura-2-thalia-en",
	"aura-2-andromeda-en",
	"aura-2-helena-en",
	"aura-2-apollo-en",
	"aura-2-arcas-en",
	"aura-2-aries-en",
	"aura-asteria-en",
	"aura-luna-en",
	"aura-stella-en",
	"aura-athena-en",
	"aura-hera-en",
	"aura-orion-en",
	"aura-arcas-en",
	"aura-perseus-en",
	"aura-angus-en",
	"aura-orpheus-en",
	"aura-helios-en",
	"aura-zeus-en",
	"aura-2-celeste-es",
	"aura-2-estrella-es",
	"aura-2-nestor-es",
}

// languageVoices holds the voice used for a language when none is configured.
var languageVoices = map[string]deepgramVoice{
	"en": defaultVoice,
	"es": "aura-2-celeste-es",
}

func GetAvailableVoices() []deepgramVoice {
	voices := make([]deepgramVoice, len(availableVoices))
	copy(voices, availableVoices)
	return voices
}

// ParseVoice accepts any of the names in [GetAvailableVoices].
func ParseVoice(name string) (deepgramVoice, bool) {
	for _, voice := range availableVoices {
		if string(voice) == name {
			return voice, true
		}
	}
	return "", false
}

// Language is the primary language subtag the voice speaks, e.g. "en".
func (v deepgramVoice) Language() string {
	if i := strings.LastIndex(string(v), "-"); i >= 0 {
		return string(v)[i+1:]
	}
	return ""
}

// VoiceForLanguage returns the default voice for a BCP 47 locale such as
// "es-MX", and false when no voice speaks it.
func VoiceForLanguage(locale string) (deepgramVoice, bool) {
	voice, ok := languageVoices[primaryLanguage(locale)]
	return voice, ok
}

func primaryLanguage(locale string) string {
	language, _, _ := strings.Cut(locale, "-")
	return strings.ToLower(language)
}
