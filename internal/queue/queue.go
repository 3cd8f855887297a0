package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/google/uuid"
)

// FileName is the queue file inside the state directory.
const FileName = "queue.json"

// Queue is a priority-ordered list of entries stored as a JSON array.
//
// Every operation is a full read-modify-write of the file. There is no lock
// on the file itself: enqueuers only insert, and only the holder of the
// playback lock dequeues.
type Queue struct {
	path   string
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithClock replaces time.Now for entries queued without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// New returns the queue stored in stateDir.
func New(stateDir string, opts ...Option) *Queue {
	q := &Queue{
		path:   filepath.Join(stateDir, FileName),
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Path returns the queue file path.
func (q *Queue) Path() string {
	return q.path
}

// Enqueue inserts e after every entry of equal or more urgent priority and
// before the first less urgent one. An error means the entry was not stored.
func (q *Queue) Enqueue(e Entry) error {
	e.Priority = e.Priority.Normalize()
	e.Speed = e.Speed.Normalize()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.QueuedAt.IsZero() {
		e.QueuedAt = q.now().UTC()
	}

	entries := q.load()
	i := insertIndex(entries, e.Priority)
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e

	if err := q.save(entries); err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}
	q.logger.Debug("message queued", "id", e.ID, "priority", e.Priority, "position", i, "length", len(entries))
	return nil
}

// Dequeue removes and returns the head of the queue, or nil when it is empty.
func (q *Queue) Dequeue() (*Entry, error) {
	entries := q.load()
	if len(entries) == 0 {
		return nil, nil
	}

	head := entries[0]
	if err := q.save(entries[1:]); err != nil {
		return nil, fmt.Errorf("failed to dequeue message: %w", err)
	}
	q.logger.Debug("message dequeued", "id", head.ID, "remaining", len(entries)-1)
	return &head, nil
}

// List returns the pending entries in service order.
func (q *Queue) List() []Entry {
	return q.load()
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	return len(q.load())
}

// insertIndex returns the first position holding a strictly less urgent
// entry than p, keeping FIFO order within a band.
func insertIndex(entries []Entry, p ttypes.Priority) int {
	rank := p.Rank()
	for i, e := range entries {
		if e.Priority.Rank() > rank {
			return i
		}
	}
	return len(entries)
}

// load reads the queue. A missing, unreadable or corrupted file yields an
// empty queue; the next save replaces it.
func (q *Queue) load() []Entry {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			q.logger.Warn("could not read queue, treating as empty", "path", q.path, "error", err)
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		q.logger.Warn("queue file corrupted, resetting", "path", q.path, "error", err)
		return nil
	}
	return entries
}

// save replaces the queue file atomically.
func (q *Queue) save(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(q.path, data)
}

// writeFileAtomic writes to a temp file in the target directory, then renames
// it over path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	_, err = f.Write(data)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return closeErr
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
