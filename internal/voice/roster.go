package voice

import (
	"strconv"
	"strings"
)

// Accents with a built-in roster.
const (
	AccentAmerican = "american"
	AccentBritish  = "british"
)

// Provider names understood by Voice.ID.
const (
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderPiper      = "piper"
)

// Voice is a named speaker with an identifier for each synthesis provider.
type Voice struct {
	Name         string
	Accent       string
	OpenAI       string
	ElevenLabs   string
	PiperSpeaker int
}

// ID returns the provider-specific voice identifier.
func (v Voice) ID(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return v.OpenAI
	case ProviderElevenLabs:
		return v.ElevenLabs
	case ProviderPiper:
		return strconv.Itoa(v.PiperSpeaker)
	default:
		return v.Name
	}
}

// key is the lower-case name used for marker files and lookups.
func (v Voice) key() string {
	return strings.ToLower(v.Name)
}

var rosters = map[string][]Voice{
	AccentAmerican: {
		{Name: "Rachel", OpenAI: "nova", ElevenLabs: "21m00Tcm4TlvDq8ikWAM", PiperSpeaker: 0},
		{Name: "Adam", OpenAI: "onyx", ElevenLabs: "pNInz6obpgDQGcFmaJgB", PiperSpeaker: 1},
		{Name: "Bella", OpenAI: "shimmer", ElevenLabs: "EXAVITQu4vr4xnSDxMaL", PiperSpeaker: 2},
		{Name: "Josh", OpenAI: "echo", ElevenLabs: "TxGEqnHWrfWFTfGW9XjX", PiperSpeaker: 3},
		{Name: "Elli", OpenAI: "alloy", ElevenLabs: "MF3mGyEYCl7XYWbV7PtO", PiperSpeaker: 4},
	},
	AccentBritish: {
		{Name: "George", OpenAI: "fable", ElevenLabs: "JBFqnCBsd6RMkjVDRZzb", PiperSpeaker: 0},
		{Name: "Charlotte", OpenAI: "shimmer", ElevenLabs: "XB0fDUnXU5powFXDhCwa", PiperSpeaker: 1},
		{Name: "Daniel", OpenAI: "onyx", ElevenLabs: "onwK4e9ZLuTAKqWW03F9", PiperSpeaker: 2},
		{Name: "Lily", OpenAI: "nova", ElevenLabs: "pFZP5JQG7iQjIQuC4Bku", PiperSpeaker: 3},
		{Name: "Alice", OpenAI: "alloy", ElevenLabs: "Xb7hH8MSUJpSbSDYk0k2", PiperSpeaker: 4},
	},
}

// Accents lists the accents with a roster.
func Accents() []string {
	return []string{AccentAmerican, AccentBritish}
}

// Roster returns the ordered voices for accent, or nil when the accent is
// unknown. The returned slice is a copy.
func Roster(accent string) []Voice {
	src, ok := rosters[strings.ToLower(accent)]
	if !ok {
		return nil
	}
	out := make([]Voice, len(src))
	for i, v := range src {
		v.Accent = strings.ToLower(accent)
		out[i] = v
	}
	return out
}
