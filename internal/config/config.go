// Package config loads agentsay settings from the YAML config file and the
// environment, and resolves the shared state directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dgnsrekt/agentsay/internal/cache"
	"github.com/dgnsrekt/agentsay/internal/text"
	"github.com/dgnsrekt/agentsay/internal/tts"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/dgnsrekt/agentsay/internal/voice"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName names the config file, the state directory and the env prefix.
const AppName = "agentsay"

// Config is the complete runtime configuration.
type Config struct {
	StateDir string `mapstructure:"state_dir" env:"AGENTSAY_STATE_DIR"`
	Accent   string `mapstructure:"accent" env:"AGENTSAY_ACCENT"`
	Voice    string `mapstructure:"voice" env:"AGENTSAY_VOICE"`
	Speed    string `mapstructure:"speed" env:"AGENTSAY_SPEED"`
	MaxChars int    `mapstructure:"max_chars" env:"AGENTSAY_MAX_CHARS"`
	Mute     bool   `mapstructure:"mute" env:"AGENTSAY_MUTE"`
	Debug    bool   `mapstructure:"debug" env:"AGENTSAY_DEBUG"`

	TTS    tts.Config   `mapstructure:"tts"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Budget BudgetConfig `mapstructure:"budget"`
	Audio  AudioConfig  `mapstructure:"audio"`
}

// CacheConfig bounds the audio cache.
type CacheConfig struct {
	MaxSizeMB        int64         `mapstructure:"max_size_mb" env:"AGENTSAY_CACHE_MAX_SIZE_MB"`
	MaxAge           time.Duration `mapstructure:"max_age" env:"AGENTSAY_CACHE_MAX_AGE"`
	Compress         bool          `mapstructure:"compress"`
	CompressionLevel int           `mapstructure:"compression_level"`
}

// BudgetConfig limits paid synthesis. Zero is unlimited.
type BudgetConfig struct {
	MonthlyCharacters int `mapstructure:"monthly_characters" env:"AGENTSAY_MONTHLY_CHARACTERS"`
}

// AudioConfig configures decoding and playback.
type AudioConfig struct {
	FFmpeg     string `mapstructure:"ffmpeg"`
	SampleRate int    `mapstructure:"sample_rate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Accent:   voice.AccentAmerican,
		Speed:    string(ttypes.SpeedNormal),
		MaxChars: text.DefaultMaxChars,
		TTS: tts.Config{
			Provider:   tts.ProviderOpenAI,
			OpenAI:     tts.OpenAIConfig{Model: "tts-1"},
			ElevenLabs: tts.ElevenLabsConfig{Model: "eleven_multilingual_v2"},
			Piper: tts.PiperConfig{
				Binary:     "piper",
				SampleRate: 22050,
				Timeout:    30 * time.Second,
			},
			RateLimit: 2,
			Burst:     1,
			Retries:   1,
		},
		Cache: CacheConfig{
			MaxSizeMB:        cache.DefaultMaxSize / (1024 * 1024),
			MaxAge:           cache.DefaultMaxAge,
			CompressionLevel: 3,
		},
		Audio: AudioConfig{
			FFmpeg:     "ffmpeg",
			SampleRate: 44100,
		},
	}
}

// Load overlays the values held by v and then the environment onto the
// defaults, resolves the state directory and validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if v != nil {
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("unable to decode configuration: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("error parsing environment: %w", err)
	}

	dir, err := ResolveStateDir(cfg.StateDir)
	if err != nil {
		return cfg, err
	}
	cfg.StateDir = dir
	cfg.TTS.Piper.Model = expand(cfg.TTS.Piper.Model)

	return cfg, cfg.Validate()
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(voice.Accents(), strings.ToLower(c.Accent)) {
		errs = append(errs, fmt.Errorf("accent %q must be one of %s", c.Accent, strings.Join(voice.Accents(), ", ")))
	}
	if _, err := ttypes.ParseSpeed(c.Speed); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(tts.Providers(), strings.ToLower(c.TTS.Provider)) {
		errs = append(errs, fmt.Errorf("%w: %q", tts.ErrUnknownProvider, c.TTS.Provider))
	}
	if c.MaxChars < 0 {
		errs = append(errs, fmt.Errorf("max_chars must not be negative, got %d", c.MaxChars))
	}
	if c.TTS.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("tts.rate_limit must not be negative, got %v", c.TTS.RateLimit))
	}
	if c.Cache.MaxSizeMB < 1 || c.Cache.MaxSizeMB > 10000 {
		errs = append(errs, fmt.Errorf("cache.max_size_mb must be between 1 and 10000, got %d", c.Cache.MaxSizeMB))
	}
	if c.Cache.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("cache.max_age must not be negative, got %s", c.Cache.MaxAge))
	}
	if c.Budget.MonthlyCharacters < 0 {
		errs = append(errs, fmt.Errorf("budget.monthly_characters must not be negative, got %d", c.Budget.MonthlyCharacters))
	}
	if c.Audio.SampleRate != 44100 && c.Audio.SampleRate != 48000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", c.Audio.SampleRate))
	}

	return errors.Join(errs...)
}

// CacheDir is where audio files are kept.
func (c Config) CacheDir() string {
	return filepath.Join(c.StateDir, "cache")
}

// LogFile is where the default logger writes.
func (c Config) LogFile() string {
	return filepath.Join(c.StateDir, AppName+".log")
}

// ResolveStateDir returns configured with ~ expanded, or the per-user data
// directory when configured is empty.
func ResolveStateDir(configured string) (string, error) {
	if configured != "" {
		return expand(configured), nil
	}
	dirs, err := gap.NewScope(gap.User, AppName).DataDirs()
	if err != nil || len(dirs) == 0 {
		return "", fmt.Errorf("could not find data directory: %w", err)
	}
	return dirs[0], nil
}

// SearchDirs lists the directories searched for the config file, most
// specific first.
func SearchDirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, AppName).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("AGENTSAY_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

func expand(path string) string {
	if path == "" {
		return path
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return os.ExpandEnv(expanded)
}
