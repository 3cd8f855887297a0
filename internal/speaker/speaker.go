package speaker

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/budget"
	"github.com/dgnsrekt/agentsay/internal/cache"
	"github.com/dgnsrekt/agentsay/internal/lock"
	"github.com/dgnsrekt/agentsay/internal/queue"
	"github.com/dgnsrekt/agentsay/internal/tts"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

// AudioCache stores synthesized audio by fingerprint.
type AudioCache interface {
	Get(key string) ([]byte, bool)
	Put(key string, data []byte) error
}

// Config wires a Speaker. Ledger may be nil to disable usage accounting.
type Config struct {
	Queue       *queue.Queue
	Lock        *lock.Playback
	Cache       AudioCache
	Synthesizer ttypes.Synthesizer
	Player      ttypes.AudioPlayer
	Ledger      *budget.Ledger
	Logger      *log.Logger
}

// Speaker drains the message queue while holding the playback lock.
type Speaker struct {
	queue  *queue.Queue
	lock   *lock.Playback
	cache  AudioCache
	synth  ttypes.Synthesizer
	player ttypes.AudioPlayer
	ledger *budget.Ledger
	logger *log.Logger
}

// Failure is an entry that could not be spoken.
type Failure struct {
	Entry queue.Entry
	Err   error
}

// Report summarises one drain.
type Report struct {
	Played      int
	CacheHits   int
	Synthesized int
	Failures    []Failure
	Elapsed     time.Duration
}

// Result is the outcome of Speak. Queued means another process holds the
// playback lock and will speak the entry.
type Result struct {
	Queued bool
	Report Report
}

// New validates cfg and returns a Speaker.
func New(cfg Config) (*Speaker, error) {
	switch {
	case cfg.Queue == nil:
		return nil, errors.New("speaker: queue is required")
	case cfg.Lock == nil:
		return nil, errors.New("speaker: playback lock is required")
	case cfg.Cache == nil:
		return nil, errors.New("speaker: cache is required")
	case cfg.Synthesizer == nil:
		return nil, errors.New("speaker: synthesizer is required")
	case cfg.Player == nil:
		return nil, errors.New("speaker: player is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Speaker{
		queue:  cfg.Queue,
		lock:   cfg.Lock,
		cache:  cfg.Cache,
		synth:  cfg.Synthesizer,
		player: cfg.Player,
		ledger: cfg.Ledger,
		logger: logger,
	}, nil
}

// Speak queues e and, if no other process is draining, drains the queue.
// Only a failure to queue is returned as an error; playback problems are
// recorded in the report.
func (s *Speaker) Speak(ctx context.Context, e queue.Entry) (Result, error) {
	if err := s.queue.Enqueue(e); err != nil {
		return Result{}, fmt.Errorf("could not queue message: %w", err)
	}
	report, drained := s.DrainNow(ctx)
	return Result{Queued: !drained, Report: report}, nil
}

// DrainNow drains the queue if the playback lock is free. It reports false
// when another process holds the lock.
func (s *Speaker) DrainNow(ctx context.Context) (Report, bool) {
	if !s.lock.AcquirePlayback() {
		if holder, ok := s.lock.Holder(); ok {
			s.logger.Debug("playback busy, message left for holder", "holder", holder.PID)
		}
		return Report{}, false
	}
	defer s.lock.ReleasePlayback()
	return s.Drain(ctx), true
}

// Drain speaks queued entries until the queue is empty or ctx is done. The
// caller must hold the playback lock.
func (s *Speaker) Drain(ctx context.Context) Report {
	var rep Report
	start := time.Now()

	for ctx.Err() == nil {
		e, err := s.queue.Dequeue()
		if err != nil {
			s.logger.Error("could not dequeue, stopping drain", "error", err)
			break
		}
		if e == nil {
			break
		}
		if err := s.speak(ctx, *e, &rep); err != nil {
			s.logger.Warn("skipping message", "id", e.ID, "voice", e.VoiceName, "error", err)
			rep.Failures = append(rep.Failures, Failure{Entry: *e, Err: err})
			continue
		}
		rep.Played++
	}
	rep.Elapsed = time.Since(start)

	s.logger.Info("drain finished",
		"played", rep.Played,
		"cached", rep.CacheHits,
		"synthesized", rep.Synthesized,
		"failed", len(rep.Failures),
		"elapsed", rep.Elapsed,
	)
	return rep
}

func (s *Speaker) speak(ctx context.Context, e queue.Entry, rep *Report) error {
	req := e.Request()
	key := cache.FingerprintRequest(req)

	audio, ok := s.cache.Get(key)
	if ok {
		rep.CacheHits++
	} else {
		if s.ledger != nil && tts.Paid(s.synth.Name()) {
			if err := s.ledger.Charge(utf8.RuneCountInString(req.Text)); err != nil {
				return err
			}
		}
		var err error
		audio, err = s.synth.Synthesize(ctx, req)
		if err != nil {
			return fmt.Errorf("synthesis failed: %w", err)
		}
		rep.Synthesized++
		if err := s.cache.Put(key, audio); err != nil {
			s.logger.Warn("could not cache audio", "key", key, "error", err)
		}
	}

	if err := s.player.Play(ctx, audio, s.synth.Format()); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	s.logger.Debug("spoke message", "id", e.ID, "priority", e.Priority, "cached", ok)
	return nil
}
