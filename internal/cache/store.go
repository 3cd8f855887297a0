package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

const (
	// DefaultMaxSize bounds the total size of the cache directory.
	DefaultMaxSize int64 = 100 * 1024 * 1024

	// DefaultMaxAge is how long an unused entry survives.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// ErrInvalidKey is returned for keys that are not plain file-name tokens.
var ErrInvalidKey = errors.New("invalid cache key")

// Config describes a Store.
type Config struct {
	Dir              string
	Ext              string // audio container, e.g. "mp3"
	MaxSize          int64
	MaxAge           time.Duration
	Compress         bool
	CompressionLevel int
}

// Stats summarises the cache directory.
type Stats struct {
	Entries   int
	SizeBytes int64
	Oldest    time.Time
	Newest    time.Time
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	Expired    int
	Evicted    int
	FreedBytes int64
}

// Store is a directory of audio files named by fingerprint. Separate
// processes may read and write it concurrently; writes to the same key are
// last-writer-wins, which is safe because the content for a key is the same.
type Store struct {
	dir     string
	ext     string
	maxSize int64
	maxAge  time.Duration
	codec   *codec
	logger  *log.Logger
	now     func() time.Time

	cleaning atomic.Bool
	wg       sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithClock replaces time.Now for recency stamps and age checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens the store, creating its directory.
func New(cfg Config, opts ...Option) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &Store{
		dir:     cfg.Dir,
		ext:     strings.TrimPrefix(cfg.Ext, "."),
		maxSize: cfg.MaxSize,
		maxAge:  cfg.MaxAge,
		logger:  log.Default(),
		now:     time.Now,
	}
	if s.ext == "" {
		s.ext = "audio"
	}
	if cfg.Compress {
		c, err := newCodec(cfg.CompressionLevel)
		if err != nil {
			return nil, err
		}
		s.codec = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(key string) string {
	name := key + "." + s.ext
	if s.codec != nil {
		name += compressedSuffix
	}
	return filepath.Join(s.dir, name)
}

// Get returns the audio stored under key. A hit refreshes the entry's
// recency. Unknown keys are a miss, never an error.
func (s *Store) Get(key string) ([]byte, bool) {
	if !validKey(key) {
		return nil, false
	}
	path := s.path(key)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	if s.codec != nil {
		decoded, err := s.codec.decode(data)
		if err != nil {
			s.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
			_ = os.Remove(path)
			return nil, false
		}
		data = decoded
	}

	now := s.now()
	if err := os.Chtimes(path, now, now); err != nil {
		s.logger.Debug("could not refresh cache entry", "key", key, "error", err)
	}
	return data, true
}

// Put stores data under key, replacing any existing entry, then starts a
// background cleanup pass. Cleanup never affects the result of Put.
func (s *Store) Put(key string, data []byte) error {
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if s.codec != nil {
		data = s.codec.encode(data)
	}

	path := s.path(key)
	if err := writeFileAtomic(s.dir, path, data); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	now := s.now()
	_ = os.Chtimes(path, now, now)

	s.scheduleCleanup()
	return nil
}

// Stats counts the entries currently on disk.
func (s *Store) Stats() Stats {
	var st Stats
	for _, e := range s.scan() {
		st.Entries++
		st.SizeBytes += e.size
		if st.Oldest.IsZero() || e.modTime.Before(st.Oldest) {
			st.Oldest = e.modTime
		}
		if e.modTime.After(st.Newest) {
			st.Newest = e.modTime
		}
	}
	return st
}

// Clear removes every entry and returns how many were removed. Entries that
// cannot be removed are skipped.
func (s *Store) Clear() (int, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Debug("could not remove cache file", "path", path, "error", err)
			continue
		}
		if !isTemp(de.Name()) {
			removed++
		}
	}
	s.logger.Info("cache cleared", "removed", removed)
	return removed, nil
}

// Cleanup removes entries older than the maximum age, then evicts the least
// recently used entries until the directory fits the size bound. Files that
// cannot be inspected or removed are skipped.
func (s *Store) Cleanup() CleanupResult {
	var res CleanupResult
	entries := s.scan()

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		kept := entries[:0]
		for _, e := range entries {
			if e.modTime.Before(cutoff) {
				if err := os.Remove(e.path); err == nil {
					res.Expired++
					res.FreedBytes += e.size
					continue
				}
			}
			kept = append(kept, e)
		}
		entries = kept
	}

	if s.maxSize > 0 {
		var total int64
		for _, e := range entries {
			total += e.size
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].modTime.Before(entries[j].modTime)
		})
		for _, e := range entries {
			if total <= s.maxSize {
				break
			}
			if err := os.Remove(e.path); err != nil {
				s.logger.Debug("could not evict cache entry", "path", e.path, "error", err)
				continue
			}
			total -= e.size
			res.Evicted++
			res.FreedBytes += e.size
		}
	}

	if res.Expired > 0 || res.Evicted > 0 {
		s.logger.Debug("cache cleanup", "expired", res.Expired, "evicted", res.Evicted, "freed", res.FreedBytes)
	}
	return res
}

// Close waits for any background cleanup to finish and releases the codec.
func (s *Store) Close() error {
	s.wg.Wait()
	if s.codec != nil {
		s.codec.close()
	}
	return nil
}

func (s *Store) scheduleCleanup() {
	if !s.cleaning.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.cleaning.Store(false)
		defer func() {
			if r := recover(); r != nil {
				s.logger.Warn("cache cleanup panicked", "panic", r)
			}
		}()
		s.Cleanup()
	}()
}

type fileEntry struct {
	path    string
	size    int64
	modTime time.Time
}

// scan lists cache entries, skipping temp files and anything unreadable.
func (s *Store) scan() []fileEntry {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("could not list cache directory", "dir", s.dir, "error", err)
		}
		return nil
	}

	out := make([]fileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || isTemp(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, fileEntry{
			path:    filepath.Join(s.dir, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return out
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, ".")
}

func writeFileAtomic(dir, path string, data []byte) error {
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
