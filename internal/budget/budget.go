// Package budget keeps a monthly character count for paid synthesis
// providers in the state directory.
package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// FileName is the ledger file inside the state directory.
const FileName = "usage.json"

// ErrBudgetExceeded is returned when a charge would exceed the monthly limit.
var ErrBudgetExceeded = errors.New("monthly character budget exceeded")

// Usage is the persisted ledger.
type Usage struct {
	Month      string `json:"month"`
	Characters int    `json:"characters"`
}

// Ledger charges synthesized characters against a monthly limit. It is only
// written by the playback lock holder, so it needs no lock of its own.
type Ledger struct {
	path   string
	limit  int
	logger *log.Logger
	now    func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// WithClock replaces time.Now for month rollover.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a ledger in stateDir. A limit of zero or less is unlimited.
func New(stateDir string, limit int, opts ...Option) *Ledger {
	l := &Ledger{
		path:   filepath.Join(stateDir, FileName),
		limit:  limit,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the monthly limit, zero when unlimited.
func (l *Ledger) Limit() int {
	return max(l.limit, 0)
}

// Usage returns the current month's usage.
func (l *Ledger) Usage() Usage {
	month := l.month()
	u := l.load()
	if u.Month != month {
		return Usage{Month: month}
	}
	return u
}

// Charge adds chars to this month's usage. It returns ErrBudgetExceeded,
// without recording anything, when the charge would exceed the limit.
func (l *Ledger) Charge(chars int) error {
	if chars <= 0 {
		return nil
	}
	u := l.Usage()
	if l.limit > 0 && u.Characters+chars > l.limit {
		return fmt.Errorf("%w: %d of %d characters used, %d requested", ErrBudgetExceeded, u.Characters, l.limit, chars)
	}
	u.Characters += chars
	if err := l.save(u); err != nil {
		// Usage is advisory; the synthesis may still proceed.
		l.logger.Warn("could not record usage", "path", l.path, "error", err)
	}
	return nil
}

func (l *Ledger) month() string {
	return l.now().UTC().Format("2006-01")
}

func (l *Ledger) load() Usage {
	var u Usage
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("could not read usage ledger", "path", l.path, "error", err)
		}
		return u
	}
	if err := json.Unmarshal(data, &u); err != nil {
		l.logger.Warn("resetting corrupt usage ledger", "path", l.path, "error", err)
		return Usage{}
	}
	return u
}

func (l *Ledger) save(u Usage) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
		return err
	}
	f, err := os.CreateTemp(dir, "."+FileName+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, l.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
