package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/audio"
	"github.com/dgnsrekt/agentsay/internal/budget"
	"github.com/dgnsrekt/agentsay/internal/cache"
	"github.com/dgnsrekt/agentsay/internal/config"
	"github.com/dgnsrekt/agentsay/internal/lock"
	"github.com/dgnsrekt/agentsay/internal/queue"
	"github.com/dgnsrekt/agentsay/internal/speaker"
	"github.com/dgnsrekt/agentsay/internal/tts"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/dgnsrekt/agentsay/internal/voice"
	"github.com/muesli/reflow/truncate"
)

func newRegistry() *voice.Registry {
	return voice.NewRegistry(cfg.StateDir, voice.Roster(strings.ToLower(cfg.Accent)), voice.WithLogger(log.Default()))
}

func newQueue(c config.Config) *queue.Queue {
	return queue.New(c.StateDir, queue.WithLogger(log.Default()))
}

func newPlayback(c config.Config) *lock.Playback {
	return lock.NewPlayback(c.StateDir, lock.WithLogger(log.Default()))
}

func newCache(c config.Config, format string) (*cache.Store, error) {
	return cache.New(cache.Config{
		Dir:              c.CacheDir(),
		Ext:              format,
		MaxSize:          c.Cache.MaxSizeMB * 1024 * 1024,
		MaxAge:           c.Cache.MaxAge,
		Compress:         c.Cache.Compress,
		CompressionLevel: c.Cache.CompressionLevel,
	}, cache.WithLogger(log.Default()))
}

func newLedger(c config.Config) *budget.Ledger {
	return budget.New(c.StateDir, c.Budget.MonthlyCharacters, budget.WithLogger(log.Default()))
}

// pickVoice chooses, in order: the named voice, the session's reservation,
// the configured default, and the first roster voice.
func pickVoice(reg *voice.Registry, name, fallback string) (voice.Voice, error) {
	if name != "" {
		return reg.Lookup(name)
	}
	if v, ok := reg.SessionVoice(); ok {
		return v, nil
	}
	if fallback != "" {
		return reg.Lookup(fallback)
	}
	roster := reg.Roster()
	if len(roster) == 0 {
		return voice.Voice{}, errors.New("no voices configured")
	}
	return roster[0], nil
}

// newSpeaker wires the drain loop. The returned cleanup waits for background
// cache maintenance and releases the audio device.
func newSpeaker(c config.Config) (*speaker.Speaker, func(), error) {
	synth, err := tts.New(c.TTS, log.Default())
	if err != nil {
		return nil, nil, err
	}

	store, err := newCache(c, synth.Format())
	if err != nil {
		return nil, nil, err
	}

	var player interface {
		ttypes.AudioPlayer
		Close() error
	}
	if c.Mute {
		player = audio.NewDiscard()
	} else {
		player = audio.NewLazy(audio.PlayerConfig{
			SampleRate: c.Audio.SampleRate,
			Channels:   1,
			FFmpeg:     c.Audio.FFmpeg,
		}, log.Default())
	}

	spk, err := speaker.New(speaker.Config{
		Queue:       newQueue(c),
		Lock:        newPlayback(c),
		Cache:       store,
		Synthesizer: synth,
		Player:      player,
		Ledger:      newLedger(c),
		Logger:      log.Default(),
	})
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Debug("closing cache", "error", err)
		}
		if err := player.Close(); err != nil {
			log.Debug("closing audio", "error", err)
		}
	}
	return spk, cleanup, nil
}

// reportSpeak prints the outcome of one invocation. It fails only when the
// caller's own message could not be spoken.
func reportSpeak(stdout, stderr io.Writer, e queue.Entry, res speaker.Result) error {
	if res.Queued {
		if !quiet {
			fmt.Fprintln(stdout, warning("queued"), faint("another agentsay is speaking; this message will follow"))
		}
		return nil
	}

	// Other sessions' failures are only logged.
	for _, f := range res.Report.Failures {
		if f.Entry.ID == e.ID {
			fmt.Fprintln(stderr, failure("failed"), truncate.StringWithTail(f.Entry.Text, 60, "…"))
			return fmt.Errorf("could not speak message: %w", f.Err)
		}
	}

	if !quiet {
		fmt.Fprintln(stdout, success("spoke"), summary(res.Report))
	}
	return nil
}

func summary(r speaker.Report) string {
	parts := []string{plural(r.Played, "message")}
	if r.CacheHits > 0 {
		parts = append(parts, fmt.Sprintf("%d from cache", r.CacheHits))
	}
	if n := len(r.Failures); n > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", n))
	}
	return faint(strings.Join(parts, ", "))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
