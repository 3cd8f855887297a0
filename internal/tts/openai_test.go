package tts

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

type speechBody struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

func TestOpenAI_Synthesize(t *testing.T) {
	var got speechBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if o.Format() != "mp3" || o.Name() != ProviderOpenAI {
		t.Errorf("unexpected identity %s/%s", o.Name(), o.Format())
	}

	audio, err := o.Synthesize(context.Background(), ttypes.SynthesisRequest{
		Text:    "build passed",
		VoiceID: "nova",
		Speed:   ttypes.SpeedFast,
		Whisper: true,
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Errorf("audio = %q", audio)
	}

	if got.Model != "tts-1" || got.Voice != "nova" || got.Input != "build passed" || got.ResponseFormat != "mp3" {
		t.Errorf("unexpected request body %+v", got)
	}
	if want := 1.25 * whisperRate; math.Abs(got.Speed-want) > 1e-9 {
		t.Errorf("speed = %v, want %v", got.Speed, want)
	}
}

func TestOpenAI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	_, err = o.Synthesize(context.Background(), ttypes.SynthesisRequest{Text: "hi", VoiceID: "nova"})
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want 429", pe.Status)
	}
	if pe.Message != "slow down" {
		t.Errorf("Message = %q", pe.Message)
	}
	if !pe.Retryable() {
		t.Error("429 should be retryable")
	}
}

func TestOpenAI_EmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	o, _ := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	_, err := o.Synthesize(context.Background(), ttypes.SynthesisRequest{Text: "hi", VoiceID: "nova"})
	if !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("expected ErrEmptyAudio, got %v", err)
	}
}

func TestOpenAI_MissingKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}
