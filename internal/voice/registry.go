package voice

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/lock"
	"github.com/dgnsrekt/agentsay/internal/process"
	"github.com/sahilm/fuzzy"
)

// LocksDir is the directory inside the state directory holding voice markers.
const LocksDir = "locks"

var (
	// ErrUnknownVoice is returned for a name that is not in the roster.
	ErrUnknownVoice = errors.New("unknown voice")

	// ErrNoSessionVoice is returned when no voice is reserved by the
	// calling session and none was named.
	ErrNoSessionVoice = errors.New("no voice reserved for this session")
)

// Status describes one roster voice.
type Status struct {
	Voice     string
	Available bool
	OwnerPID  int
	Since     time.Time
}

// Registry hands out voices to shell sessions. Reservations are owned by the
// parent of the calling process (normally the interactive shell or agent
// session) so they survive the short-lived CLI invocation that made them.
type Registry struct {
	dir    string
	roster []Voice
	owner  int
	probe  process.Probe
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithOwner overrides the reservation owner pid.
func WithOwner(pid int) Option {
	return func(r *Registry) { r.owner = pid }
}

// WithProbe replaces the process liveness check.
func WithProbe(p process.Probe) Option {
	return func(r *Registry) { r.probe = p }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry returns a registry over roster with markers under stateDir.
func NewRegistry(stateDir string, roster []Voice, opts ...Option) *Registry {
	r := &Registry{
		dir:    filepath.Join(stateDir, LocksDir),
		roster: roster,
		owner:  process.ParentID(),
		probe:  process.Alive,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Roster returns the registry's voices in reservation order.
func (r *Registry) Roster() []Voice {
	return r.roster
}

func (r *Registry) lockFor(v Voice) *lock.Lock {
	return lock.New(filepath.Join(r.dir, v.key()+".lock"),
		lock.WithFormat(lock.FormatJSON),
		lock.WithProbe(r.probe),
		lock.WithLogger(r.logger),
		lock.WithClock(r.now),
	)
}

// Reserve claims the first free voice in roster order. It returns false when
// every voice is held by a live session.
func (r *Registry) Reserve() (string, bool) {
	for _, v := range r.roster {
		if r.lockFor(v).Acquire(r.owner) {
			r.logger.Info("voice reserved", "voice", v.Name, "owner", r.owner)
			return v.Name, true
		}
	}
	r.logger.Info("no voice available", "owner", r.owner)
	return "", false
}

// Release frees a reservation. With an empty name the session's own voice is
// released. A voice held by a different live session is left alone and false
// is returned, as it is when the voice was not reserved at all.
func (r *Registry) Release(name string) (bool, error) {
	var v Voice
	if name == "" {
		sv, ok := r.SessionVoice()
		if !ok {
			return false, ErrNoSessionVoice
		}
		v = sv
	} else {
		found, err := r.Lookup(name)
		if err != nil {
			return false, err
		}
		v = found
	}

	released := r.lockFor(v).ReleaseIf(r.owner)
	r.logger.Info("voice release", "voice", v.Name, "owner", r.owner, "released", released)
	return released, nil
}

// SessionVoice returns the voice currently reserved by this registry's owner.
func (r *Registry) SessionVoice() (Voice, bool) {
	for _, v := range r.roster {
		m, held := r.lockFor(v).Held()
		if held && m.PID == r.owner {
			return v, true
		}
	}
	return Voice{}, false
}

// Statuses reports every roster voice. Markers left by dead sessions are
// removed along the way and reported as available.
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.roster))
	for _, v := range r.roster {
		lk := r.lockFor(v)
		st := Status{Voice: v.Name, Available: true}

		if m, held := lk.Held(); held {
			st.Available = false
			st.OwnerPID = m.PID
			st.Since = m.AcquiredAt
		} else if !lk.Reclaim() {
			// Unreadable but too fresh to remove; someone is writing it.
			st.Available = false
		}
		out = append(out, st)
	}
	return out
}

// Lookup finds a roster voice by case-insensitive name.
func (r *Registry) Lookup(name string) (Voice, error) {
	for _, v := range r.roster {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}

	names := make([]string, len(r.roster))
	for i, v := range r.roster {
		names[i] = v.Name
	}
	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return Voice{}, fmt.Errorf("%w %q (choose one of %s)", ErrUnknownVoice, name, strings.Join(names, ", "))
	}
	suggestions := make([]string, 0, len(matches))
	for _, m := range matches {
		suggestions = append(suggestions, m.Str)
	}
	return Voice{}, fmt.Errorf("%w %q (did you mean %s?)", ErrUnknownVoice, name, strings.Join(suggestions, " or "))
}
