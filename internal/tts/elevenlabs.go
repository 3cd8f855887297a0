package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

const defaultElevenLabsURL = "https://api.elevenlabs.io"

// ElevenLabsConfig configures the ElevenLabs provider.
type ElevenLabsConfig struct {
	APIKey  string `mapstructure:"api_key" env:"ELEVENLABS_API_KEY"`
	BaseURL string `mapstructure:"base_url" env:"ELEVENLABS_BASE_URL"`
	Model   string `mapstructure:"model"`
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	Speed           float64 `json:"speed"`
}

// ElevenLabs synthesizes speech with the ElevenLabs REST API.
type ElevenLabs struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewElevenLabs creates the ElevenLabs provider.
func NewElevenLabs(cfg ElevenLabsConfig) (*ElevenLabs, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: elevenlabs (set ELEVENLABS_API_KEY)", ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultElevenLabsURL
	}
	if cfg.Model == "" {
		cfg.Model = "eleven_multilingual_v2"
	}
	return &ElevenLabs{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (e *ElevenLabs) Name() string   { return ProviderElevenLabs }
func (e *ElevenLabs) Format() string { return "mp3" }

// voiceSettings maps speed and whisper onto the provider's voice settings.
// The API accepts speeds between 0.7 and 1.2.
func voiceSettings(speed ttypes.Speed, whisper bool) elevenLabsVoiceSettings {
	s := elevenLabsVoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0.3,
		Speed:           min(max(speed.Rate(), 0.7), 1.2),
	}
	if whisper {
		s.Stability = 0.3
		s.Style = 0
	}
	return s
}

// Synthesize implements ttypes.Synthesizer.
func (e *ElevenLabs) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) ([]byte, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:          req.Text,
		ModelID:       e.model,
		VoiceSettings: voiceSettings(req.Speed, req.Whisper),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=mp3_44100_128", e.baseURL, url.PathEscape(req.VoiceID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderElevenLabs, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider: ProviderElevenLabs,
			Status:   resp.StatusCode,
			Message:  elevenLabsMessage(respBody),
		}
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderElevenLabs, Message: "reading audio", Err: err}
	}
	if len(audio) == 0 {
		return nil, &ProviderError{Provider: ProviderElevenLabs, Err: ErrEmptyAudio}
	}
	return audio, nil
}

// elevenLabsMessage extracts the error detail from a response body, which is
// either {"detail":{"message":...}} or {"detail":"..."}.
func elevenLabsMessage(body []byte) string {
	var structured struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &structured); err == nil && structured.Detail.Message != "" {
		return structured.Detail.Message
	}
	var plain struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && plain.Detail != "" {
		return plain.Detail
	}
	return strings.TrimSpace(string(body))
}
