package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/agentsay/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# where the queue, locks, usage ledger and audio cache live
# state_dir: "~/.local/share/agentsay"
# voice roster: american or british
accent: "american"
# default voice when the session has none reserved
# voice: "Rachel"
# speaking rate: fast, normal or slow
speed: "normal"
# longest message spoken, in characters
max_chars: 1000
# synthesize and cache but do not play
mute: false
# log debug output
debug: false

tts:
  # provider: openai, elevenlabs or piper
  provider: "openai"
  # requests per second and burst sent to the provider
  rate_limit: 2
  burst: 1
  # retries for rate-limited or failed requests
  retries: 1

  openai:
    # api_key is read from OPENAI_API_KEY when unset
    # api_key: ""
    # base_url: "https://api.openai.com/v1"
    model: "tts-1"

  elevenlabs:
    # api_key is read from ELEVENLABS_API_KEY when unset
    # api_key: ""
    model: "eleven_multilingual_v2"

  piper:
    binary: "piper"
    # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
    sample_rate: 22050
    timeout: "30s"

cache:
  # evict least recently used audio above this size
  max_size_mb: 100
  # drop audio not played for this long
  max_age: "168h"
  # store entries zstd-compressed
  compress: false
  compression_level: 3

budget:
  # characters sent to paid providers per calendar month; 0 is unlimited
  monthly_characters: 0

audio:
  ffmpeg: "ffmpeg"
  sample_rate: 44100
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the agentsay config file",
	Long:    paragraph(fmt.Sprintf("\n%s the agentsay config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("agentsay config\nagentsay config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd(config.AppName, configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
