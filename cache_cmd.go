package main

import (
	"fmt"

	"github.com/dgnsrekt/agentsay/internal/cache"
	"github.com/dgnsrekt/agentsay/internal/tts"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the audio cache",
		Long: paragraph(fmt.Sprintf("\nSynthesized audio is %s by text, voice and speed so repeated messages play without a provider call.",
			keyword("cached"))),
		Args: cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and this month's paid usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			st := store.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, header("Cache"))
			fmt.Fprintf(out, "  %s %s\n", faint("directory"), store.Dir())
			fmt.Fprintf(out, "  %s %s in %s\n", faint("entries  "), humanize.Comma(int64(st.Entries)), humanize.IBytes(uint64(st.SizeBytes))) //nolint:gosec
			fmt.Fprintf(out, "  %s %s\n", faint("limit    "), humanize.IBytes(uint64(cfg.Cache.MaxSizeMB)*1024*1024))             //nolint:gosec
			if st.Entries > 0 {
				fmt.Fprintf(out, "  %s %s\n", faint("oldest   "), humanize.Time(st.Oldest))
				fmt.Fprintf(out, "  %s %s\n", faint("newest   "), humanize.Time(st.Newest))
			}

			ledger := newLedger(cfg)
			u := ledger.Usage()
			fmt.Fprintln(out, header("Usage"))
			used := humanize.Comma(int64(u.Characters))
			if limit := ledger.Limit(); limit > 0 {
				fmt.Fprintf(out, "  %s %s of %s characters\n", faint(u.Month), used, humanize.Comma(int64(limit)))
			} else {
				fmt.Fprintf(out, "  %s %s characters %s\n", faint(u.Month), used, faint("(no limit)"))
			}
			return nil
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			n, err := store.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), success("cleared"), faint(fmt.Sprintf("%d entries", n)))
			return nil
		},
	}

	cacheCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Expire old entries and evict down to the size limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			res := store.Cleanup()
			fmt.Fprintln(cmd.OutOrStdout(), success("cleaned"),
				faint(fmt.Sprintf("%d expired, %d evicted, %s freed", res.Expired, res.Evicted, humanize.IBytes(uint64(res.FreedBytes))))) //nolint:gosec
			return nil
		},
	}
)

// openCache opens the store with the extension the configured provider
// writes, without constructing the provider.
func openCache() (*cache.Store, error) {
	return newCache(cfg, tts.FormatFor(cfg.TTS.Provider))
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cacheCleanupCmd)
}
