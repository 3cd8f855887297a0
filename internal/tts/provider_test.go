package tts

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
		want    string
	}{
		{"unknown provider", Config{Provider: "espeak"}, ErrUnknownProvider, ""},
		{"openai without key", Config{Provider: "openai"}, ErrMissingAPIKey, ""},
		{"default provider without key", Config{}, ErrMissingAPIKey, ""},
		{"elevenlabs without key", Config{Provider: "elevenlabs"}, ErrMissingAPIKey, ""},
		{"openai", Config{Provider: "OpenAI", OpenAI: OpenAIConfig{APIKey: "sk"}}, nil, ProviderOpenAI},
		{"elevenlabs", Config{Provider: "elevenlabs", ElevenLabs: ElevenLabsConfig{APIKey: "xi"}}, nil, ProviderElevenLabs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
			if _, ok := s.(*Limited); !ok {
				t.Errorf("expected rate limited synthesizer, got %T", s)
			}
		})
	}
}

func TestPaid(t *testing.T) {
	if !Paid(ProviderOpenAI) || !Paid(ProviderElevenLabs) {
		t.Error("hosted providers should be paid")
	}
	if Paid(ProviderPiper) {
		t.Error("piper should not be paid")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]string{
		ProviderOpenAI:     "mp3",
		ProviderElevenLabs: "mp3",
		ProviderPiper:      "wav",
		"Piper":            "wav",
		"":                 "mp3",
	}
	for provider, want := range tests {
		if got := FormatFor(provider); got != want {
			t.Errorf("FormatFor(%q) = %q, want %q", provider, got, want)
		}
	}
}
