package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgnsrekt/agentsay/internal/config"
	"github.com/dgnsrekt/agentsay/internal/voice"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	voiceCmd = &cobra.Command{
		Use:   "voice",
		Short: "Reserve a distinct voice for this session",
		Long: paragraph(fmt.Sprintf("\n%s a voice for the calling shell or agent session so concurrent sessions sound different. "+
			"A reservation lasts until it is released or the session exits.", keyword("Reserve"))),
		Example: paragraph("eval \"$(agentsay voice reserve --export)\"\nagentsay voice status\nagentsay voice release"),
		Args:    cobra.NoArgs,
	}

	exportVoice bool

	voiceReserveCmd = &cobra.Command{
		Use:   "reserve",
		Short: "Reserve the first free voice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := newRegistry()
			name := ""
			if v, ok := reg.SessionVoice(); ok {
				name = v.Name
			} else if n, ok := reg.Reserve(); ok {
				name = n
			} else {
				return errors.New("every voice is reserved by a running session")
			}

			if exportVoice {
				fmt.Fprintf(cmd.OutOrStdout(), "export AGENTSAY_VOICE=%s\n", name)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	voiceReleaseCmd = &cobra.Command{
		Use:   "release [NAME]",
		Short: "Release this session's voice, or a voice left by a dead session",
		Args:  cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return voiceNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			released, err := newRegistry().Release(name)
			if err != nil {
				return err
			}
			if !quiet {
				if released {
					fmt.Fprintln(cmd.OutOrStdout(), success("released"))
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), warning("not released"), faint("the voice is free or held by another session"))
				}
			}
			return nil
		},
	}

	voiceStatusCmd = &cobra.Command{
		Use:     "status",
		Aliases: []string{"ls"},
		Short:   "Show which voices are reserved",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := newRegistry()
			mine, _ := reg.SessionVoice()

			width := 0
			for _, v := range reg.Roster() {
				width = max(width, runewidth.StringWidth(v.Name))
			}

			out := cmd.OutOrStdout()
			for _, st := range reg.Statuses() {
				name := runewidth.FillRight(st.Voice, width)
				switch {
				case st.Voice == mine.Name:
					fmt.Fprintln(out, keyword(name), success("yours"), faint("since "+humanize.Time(st.Since)))
				case st.Available:
					fmt.Fprintln(out, name, faint("free"))
				case st.OwnerPID == 0:
					fmt.Fprintln(out, name, warning("being claimed"))
				default:
					fmt.Fprintln(out, name, warning(fmt.Sprintf("pid %d", st.OwnerPID)), faint("since "+humanize.Time(st.Since)))
				}
			}
			return nil
		},
	}
)

// voiceNames completes voice names. Completion runs before the configuration
// is loaded, so the accent falls back to viper and then the default.
func voiceNames() []string {
	accent := cfg.Accent
	if accent == "" {
		accent = viper.GetString("accent")
	}
	if accent == "" {
		accent = config.Default().Accent
	}
	var names []string
	for _, v := range voice.Roster(accent) {
		names = append(names, strings.ToLower(v.Name))
	}
	return names
}

func init() {
	voiceReserveCmd.Flags().BoolVar(&exportVoice, "export", false, "print a shell export line")
	voiceCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print nothing on success")
	voiceCmd.AddCommand(voiceReserveCmd, voiceReleaseCmd, voiceStatusCmd)
}
