package lock

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/process"
)

// writeGrace is how long an unparsable marker is assumed to be mid-write by
// its creator rather than abandoned.
const writeGrace = time.Second

// Lock is an exclusive marker file for one named resource.
//
// Acquisition never blocks: it either creates the marker or reports that a
// live process already owns it. Liveness is judged by the host's process
// table, so a Lock is only meaningful between processes on the same machine.
type Lock struct {
	path   string
	format Format
	probe  process.Probe
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Lock.
type Option func(*Lock)

// WithFormat sets the on-disk marker encoding.
func WithFormat(f Format) Option {
	return func(l *Lock) { l.format = f }
}

// WithProbe replaces the process liveness check.
func WithProbe(p process.Probe) Option {
	return func(l *Lock) { l.probe = p }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(logger *log.Logger) Option {
	return func(l *Lock) { l.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Lock) { l.now = now }
}

// New returns a Lock backed by the marker file at path.
func New(path string, opts ...Option) *Lock {
	l := &Lock{
		path:   path,
		format: FormatPlain,
		probe:  process.Alive,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the marker file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire tries to claim the resource for owner. It returns false when a live
// process holds the marker or the filesystem refuses the create. A marker left
// by a dead owner is removed and acquisition is retried once.
func (l *Lock) Acquire(owner int) bool {
	return l.acquire(owner, true)
}

func (l *Lock) acquire(owner int, retry bool) bool {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil { //nolint:gosec
		l.logger.Warn("lock directory unavailable", "path", l.path, "error", err)
		return false
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec
	if err == nil {
		var buf bytes.Buffer
		werr := encodeMarker(&buf, l.format, Marker{PID: owner, AcquiredAt: l.now().UTC()})
		if werr == nil {
			_, werr = f.Write(buf.Bytes())
		}
		cerr := f.Close()
		if werr != nil || cerr != nil {
			// A marker without a readable owner would block everyone until
			// the grace period passes, so drop it.
			_ = os.Remove(l.path)
			l.logger.Warn("could not write lock marker", "path", l.path, "error", errors.Join(werr, cerr))
			return false
		}
		l.logger.Debug("lock acquired", "path", l.path, "pid", owner)
		return true
	}

	if !errors.Is(err, fs.ErrExist) {
		l.logger.Warn("could not create lock marker", "path", l.path, "error", err)
		return false
	}
	if !retry {
		return false
	}
	if !l.reclaim() {
		return false
	}
	return l.acquire(owner, false)
}

// Release removes the marker regardless of who owns it. Releasing a lock
// that is not held is a no-op.
func (l *Lock) Release() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("could not remove lock marker", "path", l.path, "error", err)
		return
	}
	l.logger.Debug("lock released", "path", l.path)
}

// ReleaseIf removes the marker when it is owned by owner or its owner is no
// longer alive. It returns false when there is nothing to release or another
// live process holds the lock.
func (l *Lock) ReleaseIf(owner int) bool {
	m, err := l.Inspect()
	switch {
	case errors.Is(err, ErrNoMarker):
		return false
	case err != nil:
		if !l.expired() {
			return false
		}
	case m.PID != owner && l.probe(m.PID):
		return false
	}
	l.Release()
	return true
}

// Inspect reads the current marker without judging its owner's liveness.
func (l *Lock) Inspect() (Marker, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Marker{}, ErrNoMarker
		}
		return Marker{}, err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Marker{}, ErrNoMarker
		}
		return Marker{}, err
	}
	return decodeMarker(data, l.format, info.ModTime())
}

// Held reports the marker when it is owned by a live process.
func (l *Lock) Held() (Marker, bool) {
	m, err := l.Inspect()
	if err != nil {
		return Marker{}, false
	}
	if !l.probe(m.PID) {
		return m, false
	}
	return m, true
}

// Reclaim removes the marker when its owner is dead or the marker is
// unreadable past the write grace period. It reports whether the resource is
// now free.
func (l *Lock) Reclaim() bool {
	return l.reclaim()
}

func (l *Lock) reclaim() bool {
	m, err := l.Inspect()
	switch {
	case errors.Is(err, ErrNoMarker):
		return true
	case errors.Is(err, ErrCorruptMarker):
		if !l.expired() {
			return false
		}
		l.logger.Debug("removing unreadable lock marker", "path", l.path)
	case err != nil:
		l.logger.Warn("could not read lock marker", "path", l.path, "error", err)
		return false
	case l.probe(m.PID):
		return false
	default:
		l.logger.Debug("removing stale lock marker", "path", l.path, "pid", m.PID)
	}

	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("could not remove stale lock marker", "path", l.path, "error", err)
		return false
	}
	return true
}

// expired reports whether the marker file is older than the write grace.
func (l *Lock) expired() bool {
	info, err := os.Stat(l.path)
	if err != nil {
		return true
	}
	return l.now().Sub(info.ModTime()) >= writeGrace
}
