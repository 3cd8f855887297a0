package tts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
	openai "github.com/sashabaranov/go-openai"
)

// whisperRate scales the speaking rate for providers without a whisper
// style.
const whisperRate = 0.9

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `mapstructure:"base_url" env:"OPENAI_BASE_URL"`
	Model   string `mapstructure:"model"`
}

// OpenAI synthesizes speech with the OpenAI audio API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai (set OPENAI_API_KEY)", ErrMissingAPIKey)
	}
	c := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		c.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(c),
		model:  model,
	}, nil
}

func (o *OpenAI) Name() string   { return ProviderOpenAI }
func (o *OpenAI) Format() string { return "mp3" }

// Synthesize implements ttypes.Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) ([]byte, error) {
	speed := req.Speed.Rate()
	if req.Whisper {
		speed *= whisperRate
	}

	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.VoiceID),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          speed,
	})
	if err != nil {
		return nil, openAIError(err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: "reading audio", Err: err}
	}
	if len(audio) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAI, Err: ErrEmptyAudio}
	}
	return audio, nil
}

func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: ProviderOpenAI, Status: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{Provider: ProviderOpenAI, Status: reqErr.HTTPStatusCode, Err: err}
	}
	return &ProviderError{Provider: ProviderOpenAI, Err: err}
}
