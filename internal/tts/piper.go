package tts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

// PiperConfig configures the local Piper provider.
type PiperConfig struct {
	Binary     string        `mapstructure:"binary"`
	Model      string        `mapstructure:"model"`
	SampleRate int           `mapstructure:"sample_rate"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Piper synthesizes speech by running the piper binary.
type Piper struct {
	binary     string
	model      string
	sampleRate int
	timeout    time.Duration
}

// NewPiper creates the Piper provider after checking the binary and model.
func NewPiper(cfg PiperConfig) (*Piper, error) {
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	binary, err := exec.LookPath(cfg.Binary)
	if err != nil {
		return nil, fmt.Errorf("piper not found in PATH (install from https://github.com/rhasspy/piper/releases): %w", err)
	}
	if cfg.Model == "" {
		return nil, errors.New("piper model path not configured (set tts.piper.model)")
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, fmt.Errorf("piper model not accessible: %w", err)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 22050
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Piper{
		binary:     binary,
		model:      cfg.Model,
		sampleRate: cfg.SampleRate,
		timeout:    cfg.Timeout,
	}, nil
}

func (p *Piper) Name() string   { return ProviderPiper }
func (p *Piper) Format() string { return "wav" }

// lengthScale converts a speaking rate to piper's phoneme length scale.
func lengthScale(speed ttypes.Speed, whisper bool) float64 {
	rate := speed.Rate()
	if whisper {
		rate *= whisperRate
	}
	return 1.0 / rate
}

// Synthesize implements ttypes.Synthesizer.
func (p *Piper) Synthesize(ctx context.Context, req ttypes.SynthesisRequest) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{
		"--model", p.model,
		"--output-raw",
		"--length_scale", fmt.Sprintf("%.2f", lengthScale(req.Speed, req.Whisper)),
	}
	if req.VoiceID != "" {
		args = append(args, "--speaker", req.VoiceID)
	}

	cmd := exec.CommandContext(ctx, p.binary, args...)
	// Text is on stdin before the process starts.
	cmd.Stdin = strings.NewReader(req.Text)
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = 100 * time.Millisecond

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &ProviderError{Provider: ProviderPiper, Message: "synthesis timed out", Err: ctx.Err()}
		}
		return nil, &ProviderError{
			Provider: ProviderPiper,
			Message:  strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	if stdout.Len() == 0 {
		return nil, &ProviderError{Provider: ProviderPiper, Message: strings.TrimSpace(stderr.String()), Err: ErrEmptyAudio}
	}
	return wrapPCM(stdout.Bytes(), p.sampleRate), nil
}
