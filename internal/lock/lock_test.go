package lock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeProcesses is a liveness probe backed by a set of live pids.
type fakeProcesses map[int]bool

func (f fakeProcesses) alive(pid int) bool { return f[pid] }

func newTestLock(t *testing.T, live fakeProcesses, opts ...Option) *Lock {
	t.Helper()
	path := filepath.Join(t.TempDir(), "locks", "resource.lock")
	return New(path, append([]Option{WithProbe(live.alive)}, opts...)...)
}

func TestLock_ExclusiveBetweenLiveOwners(t *testing.T) {
	live := fakeProcesses{100: true, 200: true}
	l := newTestLock(t, live)

	if !l.Acquire(100) {
		t.Fatal("first acquire failed")
	}
	if l.Acquire(200) {
		t.Fatal("second owner acquired a lock held by a live process")
	}

	m, held := l.Held()
	if !held || m.PID != 100 {
		t.Fatalf("Held() = %+v, %v; want pid 100 held", m, held)
	}

	l.Release()
	if !l.Acquire(200) {
		t.Fatal("acquire after release failed")
	}
	if m, _ := l.Held(); m.PID != 200 {
		t.Errorf("owner after reacquire = %d, want 200", m.PID)
	}
}

func TestLock_ReclaimsStaleMarker(t *testing.T) {
	live := fakeProcesses{100: true, 200: true}
	l := newTestLock(t, live)

	if !l.Acquire(100) {
		t.Fatal("acquire failed")
	}
	// Owner 100 dies without releasing.
	delete(live, 100)

	if !l.Acquire(200) {
		t.Fatal("contender could not reclaim a stale marker")
	}
	m, held := l.Held()
	if !held || m.PID != 200 {
		t.Errorf("Held() = %+v, %v; want pid 200 held", m, held)
	}
}

func TestLock_StaleMarkerProbedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.lock")
	calls := 0
	l := New(path, WithProbe(func(int) bool {
		calls++
		return false
	}))
	if err := os.WriteFile(path, []byte("4242\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !l.Acquire(1) {
		t.Fatal("acquire over a dead owner's marker failed")
	}
	if calls != 1 {
		t.Errorf("liveness probed %d times, want 1", calls)
	}
	if m, err := l.Inspect(); err != nil || m.PID != 1 {
		t.Errorf("Inspect() = %+v, %v; want pid 1", m, err)
	}
}

func TestLock_ReleaseIsIdempotent(t *testing.T) {
	l := newTestLock(t, fakeProcesses{})
	l.Release()
	l.Release()

	if !l.Acquire(1) {
		t.Fatal("acquire failed")
	}
	l.Release()
	l.Release()
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Errorf("marker still present after release: %v", err)
	}
}

func TestLock_PlainFormatOnDisk(t *testing.T) {
	l := newTestLock(t, fakeProcesses{77: true})
	if !l.Acquire(77) {
		t.Fatal("acquire failed")
	}
	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "77" {
		t.Errorf("marker content = %q, want pid only", data)
	}
}

func TestLock_JSONFormatOnDisk(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	l := newTestLock(t, fakeProcesses{77: true},
		WithFormat(FormatJSON),
		WithClock(func() time.Time { return now }),
	)
	if !l.Acquire(77) {
		t.Fatal("acquire failed")
	}
	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"pid":77`) || !strings.Contains(string(data), `"reservedAt":"2026-10-15T09:30:00Z"`) {
		t.Errorf("unexpected marker content %s", data)
	}

	m, err := l.Inspect()
	if err != nil {
		t.Fatal(err)
	}
	if m.PID != 77 || !m.AcquiredAt.Equal(now) {
		t.Errorf("Inspect() = %+v", m)
	}
}

func TestLock_CorruptMarker(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	l := newTestLock(t, fakeProcesses{}, WithClock(clock))
	if err := os.MkdirAll(filepath.Dir(l.Path()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.Path(), []byte("not a pid"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Freshly written garbage may be a marker mid-write.
	if l.Acquire(1) {
		t.Fatal("acquired over a marker inside the write grace period")
	}

	now = now.Add(2 * writeGrace)
	if !l.Acquire(1) {
		t.Fatal("could not reclaim an abandoned unreadable marker")
	}
}

func TestLock_ReleaseIf(t *testing.T) {
	live := fakeProcesses{10: true, 20: true}

	tests := []struct {
		name   string
		holder int
		caller int
		dead   bool
		want   bool
	}{
		{name: "own marker", holder: 10, caller: 10, want: true},
		{name: "other live owner", holder: 20, caller: 10, want: false},
		{name: "other stale owner", holder: 20, caller: 10, dead: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := fakeProcesses{10: live[10], 20: live[20] && !tt.dead}
			l := newTestLock(t, probe)
			if !l.Acquire(tt.holder) {
				t.Fatal("setup acquire failed")
			}
			if got := l.ReleaseIf(tt.caller); got != tt.want {
				t.Errorf("ReleaseIf(%d) = %v, want %v", tt.caller, got, tt.want)
			}
			_, err := os.Stat(l.Path())
			if exists := err == nil; exists == tt.want {
				t.Errorf("marker exists = %v after ReleaseIf returned %v", exists, tt.want)
			}
		})
	}

	t.Run("no marker", func(t *testing.T) {
		l := newTestLock(t, live)
		if l.ReleaseIf(10) {
			t.Error("ReleaseIf reported a release with no marker present")
		}
	})
}

func TestLock_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	// The parent "directory" is a regular file, so MkdirAll fails.
	l := New(filepath.Join(blocker, "x.lock"), WithProbe(fakeProcesses{}.alive))
	if l.Acquire(1) {
		t.Fatal("acquire succeeded on an unusable path")
	}
	l.Release()
}

func TestPlayback_AcquireRelease(t *testing.T) {
	dir := t.TempDir()
	live := fakeProcesses{1: true, 2: true}

	first := NewPlayback(dir, WithProbe(live.alive))
	first.owner = 1
	second := NewPlayback(dir, WithProbe(live.alive))
	second.owner = 2

	if !first.AcquirePlayback() {
		t.Fatal("first playback acquire failed")
	}
	if second.AcquirePlayback() {
		t.Fatal("second process acquired playback while first is alive")
	}
	if m, ok := second.Holder(); !ok || m.PID != 1 {
		t.Errorf("Holder() = %+v, %v", m, ok)
	}

	first.ReleasePlayback()
	if !second.AcquirePlayback() {
		t.Fatal("second could not acquire after release")
	}

	if _, err := os.Stat(filepath.Join(dir, PlaybackFile)); err != nil {
		t.Errorf("playback marker missing: %v", err)
	}
}
