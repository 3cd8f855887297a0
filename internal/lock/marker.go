package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoMarker is returned when no marker file exists for the resource.
	ErrNoMarker = errors.New("lock marker not found")

	// ErrCorruptMarker is returned when a marker exists but cannot be parsed.
	ErrCorruptMarker = errors.New("lock marker corrupted")
)

// Format selects how a marker is encoded on disk.
type Format int

const (
	// FormatPlain stores the owner pid as decimal text. The acquisition time
	// is the file's modification time.
	FormatPlain Format = iota

	// FormatJSON stores {"pid": ..., "reservedAt": ...}.
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Marker is the ownership record stored in a lock file.
type Marker struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"reservedAt"`
}

func encodeMarker(w io.Writer, f Format, m Marker) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(m)
	default:
		_, err := fmt.Fprintf(w, "%d\n", m.PID)
		return err
	}
}

// decodeMarker parses marker content. modTime fills AcquiredAt for formats
// that do not record it.
func decodeMarker(data []byte, f Format, modTime time.Time) (Marker, error) {
	var m Marker
	switch f {
	case FormatJSON:
		if err := json.Unmarshal(data, &m); err != nil {
			return Marker{}, fmt.Errorf("%w: %v", ErrCorruptMarker, err)
		}
		if m.AcquiredAt.IsZero() {
			m.AcquiredAt = modTime
		}
	default:
		pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return Marker{}, fmt.Errorf("%w: %v", ErrCorruptMarker, err)
		}
		m = Marker{PID: pid, AcquiredAt: modTime}
	}
	if m.PID <= 0 {
		return Marker{}, fmt.Errorf("%w: invalid pid %d", ErrCorruptMarker, m.PID)
	}
	return m, nil
}
