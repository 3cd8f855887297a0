package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

func TestElevenLabs_Synthesize(t *testing.T) {
	var got elevenLabsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/v1/text-to-speech/voice123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.Header.Get("xi-api-key"); key != "xi-test" {
			t.Errorf("xi-api-key = %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	e, err := NewElevenLabs(ElevenLabsConfig{APIKey: "xi-test", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}

	audio, err := e.Synthesize(context.Background(), ttypes.SynthesisRequest{
		Text:    "tests are green",
		VoiceID: "voice123",
		Speed:   ttypes.SpeedSlow,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "mp3-bytes" {
		t.Errorf("audio = %q", audio)
	}
	if got.Text != "tests are green" || got.ModelID != "eleven_multilingual_v2" {
		t.Errorf("unexpected request %+v", got)
	}
	if got.VoiceSettings.Speed != 0.8 {
		t.Errorf("speed = %v, want 0.8", got.VoiceSettings.Speed)
	}
}

func TestElevenLabs_VoiceSettings(t *testing.T) {
	normal := voiceSettings(ttypes.SpeedFast, false)
	whisper := voiceSettings(ttypes.SpeedFast, true)

	if normal.Speed != 1.2 {
		t.Errorf("fast speed should clamp to 1.2, got %v", normal.Speed)
	}
	if whisper.Stability >= normal.Stability {
		t.Errorf("whisper stability %v should be lower than %v", whisper.Stability, normal.Stability)
	}
	if whisper.Style >= normal.Style {
		t.Errorf("whisper style %v should be lower than %v", whisper.Style, normal.Style)
	}
}

func TestElevenLabs_Error(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"structured detail", http.StatusUnauthorized, `{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`, "Invalid API key"},
		{"plain detail", http.StatusUnprocessableEntity, `{"detail":"text too long"}`, "text too long"},
		{"raw body", http.StatusBadGateway, "upstream down", "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e, _ := NewElevenLabs(ElevenLabsConfig{APIKey: "xi-test", BaseURL: srv.URL})
			_, err := e.Synthesize(context.Background(), ttypes.SynthesisRequest{Text: "hi", VoiceID: "v"})

			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if pe.Status != tt.status {
				t.Errorf("Status = %d, want %d", pe.Status, tt.status)
			}
			if pe.Message != tt.message {
				t.Errorf("Message = %q, want %q", pe.Message, tt.message)
			}
		})
	}
}

func TestElevenLabs_MissingKey(t *testing.T) {
	if _, err := NewElevenLabs(ElevenLabsConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
