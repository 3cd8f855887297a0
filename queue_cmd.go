package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgnsrekt/agentsay/internal/queue"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
)

var (
	queueCmd = &cobra.Command{
		Use:   "queue",
		Short: "Inspect messages waiting to be spoken",
		Args:  cobra.NoArgs,
	}

	queueListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List pending messages in playback order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printQueue(cmd.OutOrStdout(), newQueue(cfg).List())
			return nil
		},
	}

	queueWatchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print the queue every time it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			return newQueue(cfg).Watch(ctx, func(entries []queue.Entry) {
				fmt.Fprintln(out, faint("---"))
				printQueue(out, entries)
			})
		},
	}

	queueDrainCmd = &cobra.Command{
		Use:   "drain",
		Short: "Speak pending messages left behind by an interrupted speaker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spk, cleanup, err := newSpeaker(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, ok := spk.DrainNow(ctx)
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), warning("busy"), faint("another agentsay is already speaking"))
				return nil
			}
			for _, f := range rep.Failures {
				fmt.Fprintln(cmd.ErrOrStderr(), failure("failed"), truncate.StringWithTail(f.Entry.Text, 60, "…"), faint(f.Err.Error()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("drained"), summary(rep))
			return nil
		},
	}
)

func printQueue(w io.Writer, entries []queue.Entry) {
	if holder, ok := newPlayback(cfg).Holder(); ok {
		fmt.Fprintln(w, keyword("speaking"), faint(fmt.Sprintf("pid %d since %s", holder.PID, humanize.Time(holder.AcquiredAt))))
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, faint("queue is empty"))
		return
	}

	width := max(terminalWidth(80)-32, 20)
	for i, e := range entries {
		fmt.Fprintf(w, "%2d %s %s %s %s\n",
			i+1,
			priority(e.Priority, 8),
			runewidth.FillRight(e.VoiceName, 9),
			truncate.StringWithTail(e.Text, uint(width), "…"), //nolint:gosec
			faint(humanize.Time(e.QueuedAt)),
		)
	}
}

func init() {
	queueCmd.AddCommand(queueListCmd, queueWatchCmd, queueDrainCmd)
}
