package tts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

// Provider names.
const (
	ProviderOpenAI     = "openai"
	ProviderElevenLabs = "elevenlabs"
	ProviderPiper      = "piper"
)

// Providers lists the supported provider names.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderElevenLabs, ProviderPiper}
}

// Config selects and configures a provider.
type Config struct {
	Provider   string           `mapstructure:"provider" env:"AGENTSAY_PROVIDER"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Piper      PiperConfig      `mapstructure:"piper"`

	// RateLimit is the sustained number of requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
	Retries   int     `mapstructure:"retries"`
}

// Paid reports whether the provider bills per character.
func Paid(provider string) bool {
	return provider == ProviderOpenAI || provider == ProviderElevenLabs
}

// New builds the configured provider wrapped in a rate limiter.
func New(cfg Config, logger *log.Logger) (ttypes.Synthesizer, error) {
	var (
		s   ttypes.Synthesizer
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		s, err = NewOpenAI(cfg.OpenAI)
	case ProviderElevenLabs:
		s, err = NewElevenLabs(cfg.ElevenLabs)
	case ProviderPiper:
		s, err = NewPiper(cfg.Piper)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownProvider, cfg.Provider, strings.Join(Providers(), ", "))
	}
	if err != nil {
		return nil, err
	}
	return NewLimited(s, cfg.RateLimit, cfg.Burst, cfg.Retries, logger), nil
}

// FormatFor returns the audio container a provider produces, without
// constructing it.
func FormatFor(provider string) string {
	if strings.EqualFold(provider, ProviderPiper) {
		return "wav"
	}
	return "mp3"
}
