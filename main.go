// Package main provides the entry point for the agentsay CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/config"
	"github.com/dgnsrekt/agentsay/internal/queue"
	"github.com/dgnsrekt/agentsay/internal/text"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	debug         bool
	priorityFlag  string
	speedFlag     string
	voiceFlag     string
	whisper       bool
	fromClipboard bool
	quiet         bool

	// cfg is loaded before any command runs.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "agentsay [TEXT...]",
		Short: "Speak short notifications aloud, one at a time",
		Long: paragraph(
			fmt.Sprintf("\nSpeak short notifications aloud, %s. Concurrent invocations queue by priority and take turns on the speakers.", keyword("one at a time")),
		),
		Example: paragraph("agentsay \"tests passed\"\nagentsay -p critical \"deploy failed\"\ngit log -1 --format=%s | agentsay --whisper"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
		RunE: execute,
	}
)

// loadConfig reads the explicit --config file, if any, and resolves the
// final configuration.
func loadConfig(cmd *cobra.Command) error {
	plainOutputWhenPiped()

	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	c, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if debug || c.Debug {
		log.SetLevel(log.DebugLevel)
	}
	cfg = c
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// readMessage collects the message from the clipboard, the arguments or a
// piped stdin, in that order.
func readMessage(args []string) (string, error) {
	if fromClipboard {
		s, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("unable to read clipboard: %w", err)
		}
		return s, nil
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	if yes, err := stdinIsPipe(); err != nil {
		return "", err
	} else if yes {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		return string(b), nil
	}

	return "", errors.New("nothing to say: pass TEXT, pipe it on stdin or use --clipboard")
}

func execute(cmd *cobra.Command, args []string) error {
	raw, err := readMessage(args)
	if err != nil {
		return err
	}

	msg, err := text.New(cfg.MaxChars).Process(raw)
	if errors.Is(err, text.ErrEmpty) {
		return errors.New("nothing to say: the message is empty once formatting is removed")
	} else if err != nil {
		return err
	}

	prio, err := ttypes.ParsePriority(priorityFlag)
	if err != nil {
		return err
	}
	speedName := cfg.Speed
	if cmd.Flags().Changed("speed") {
		speedName = speedFlag
	}
	speed, err := ttypes.ParseSpeed(speedName)
	if err != nil {
		return err
	}

	v, err := pickVoice(newRegistry(), voiceFlag, cfg.Voice)
	if err != nil {
		return err
	}

	e := queue.NewEntry(msg, v.ID(strings.ToLower(cfg.TTS.Provider)), v.Name)
	e.Priority = prio
	e.Speed = speed
	e.Whisper = whisper

	spk, cleanup, err := newSpeaker(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := spk.Speak(ctx, e)
	if err != nil {
		return err
	}
	return reportSpeak(cmd.OutOrStdout(), cmd.ErrOrStderr(), e, res)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "write debug output to the log file")
	rootCmd.Flags().StringVarP(&priorityFlag, "priority", "p", string(ttypes.PriorityNormal), "message priority: critical, high, normal or low")
	rootCmd.Flags().StringVarP(&speedFlag, "speed", "s", string(ttypes.SpeedNormal), "speaking rate: fast, normal or slow")
	rootCmd.Flags().StringVarP(&voiceFlag, "voice", "v", "", "voice name (default: this session's reserved voice)")
	rootCmd.Flags().BoolVarP(&whisper, "whisper", "w", false, "speak softly")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "speak the clipboard contents")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print nothing on success")

	_ = rootCmd.RegisterFlagCompletionFunc("priority", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"critical", "high", "normal", "low"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("speed", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"fast", "normal", "slow"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("voice", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return voiceNames(), cobra.ShellCompDirectiveNoFileComp
	})

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(configCmd, manCmd, voiceCmd, cacheCmd, queueCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := config.SearchDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName(config.AppName)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(config.AppName)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], config.AppName+".yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
