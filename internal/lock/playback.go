package lock

import (
	"path/filepath"

	"github.com/dgnsrekt/agentsay/internal/process"
)

// PlaybackFile is the name of the playback marker inside the state directory.
const PlaybackFile = "play.lock"

// Playback guards audible output: at most one process on the host drains the
// message queue at a time.
type Playback struct {
	lock  *Lock
	owner int
}

// NewPlayback returns the playback lock for stateDir, owned by the current
// process when acquired.
func NewPlayback(stateDir string, opts ...Option) *Playback {
	opts = append([]Option{WithFormat(FormatPlain)}, opts...)
	return &Playback{
		lock:  New(filepath.Join(stateDir, PlaybackFile), opts...),
		owner: process.Self(),
	}
}

// AcquirePlayback claims the right to drain the queue. A false result means
// another live process is already draining and will service our entry.
func (p *Playback) AcquirePlayback() bool {
	return p.lock.Acquire(p.owner)
}

// ReleasePlayback gives up the playback lock.
func (p *Playback) ReleasePlayback() {
	p.lock.Release()
}

// Holder reports the live process currently draining, if any.
func (p *Playback) Holder() (Marker, bool) {
	return p.lock.Held()
}
