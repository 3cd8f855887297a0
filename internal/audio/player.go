package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int    // 44100 or 48000 Hz only
	Channels   int    // 1 = mono, 2 = stereo
	FFmpeg     string // decoder binary, "ffmpeg" when empty
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1,
	}
}

func validateConfig(config PlayerConfig) error {
	// oto only supports these sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	return nil
}

// oto permits a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

func sharedContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Player plays encoded audio through the system output device.
type Player struct {
	context *oto.Context
	decoder *Decoder
	logger  *log.Logger
	poll    time.Duration
}

// NewPlayer checks for ffmpeg and opens the audio device.
func NewPlayer(config PlayerConfig, logger *log.Logger) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	decoder := NewDecoder(config.FFmpeg, config.SampleRate, config.Channels)
	if err := decoder.Available(); err != nil {
		return nil, err
	}
	ctx, err := sharedContext(config.SampleRate, config.Channels)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Player{
		context: ctx,
		decoder: decoder,
		logger:  logger,
		poll:    10 * time.Millisecond,
	}, nil
}

// Play decodes audio and blocks until it has been played or ctx is done.
func (p *Player) Play(ctx context.Context, audio []byte, format string) error {
	pcm, err := p.decoder.Decode(ctx, audio, format)
	if err != nil {
		return err
	}

	// pcm stays referenced by the reader until the player is closed.
	player := p.context.NewPlayer(bytes.NewReader(pcm))
	defer func() {
		if err := player.Close(); err != nil {
			p.logger.Debug("closing oto player", "error", err)
		}
	}()

	player.Play()
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	if err := player.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// Close suspends the shared audio context.
func (p *Player) Close() error {
	if p.context == nil {
		return nil
	}
	return p.context.Suspend()
}
