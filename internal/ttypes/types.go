// Package ttypes contains types shared by the queue, cache, synthesis and
// playback packages. It exists to break import cycles between them.
package ttypes

import (
	"context"
	"fmt"
	"strings"
)

// Priority is the urgency band of a queued utterance. The zero value is
// treated as PriorityNormal.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Priorities lists the bands from most to least urgent.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow}
}

// Rank orders priorities: lower ranks are served first. Unknown values rank
// as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityLow:
		return 3
	default:
		return 2
	}
}

// Normalize maps unknown and empty values to PriorityNormal.
func (p Priority) Normalize() Priority {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityLow:
		return p
	default:
		return PriorityNormal
	}
}

// ParsePriority parses a priority name, rejecting unknown names.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow:
		return p, nil
	case "":
		return PriorityNormal, nil
	default:
		return "", fmt.Errorf("invalid priority %q: must be one of critical, high, normal, low", s)
	}
}

// UnmarshalText decodes a priority leniently so an unexpected value in a
// persisted queue does not poison the whole file.
func (p *Priority) UnmarshalText(b []byte) error {
	*p = Priority(strings.ToLower(string(b))).Normalize()
	return nil
}

// Speed is the speaking rate of an utterance. The zero value is treated as
// SpeedNormal.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
)

// Normalize maps unknown and empty values to SpeedNormal.
func (s Speed) Normalize() Speed {
	switch s {
	case SpeedFast, SpeedSlow:
		return s
	default:
		return SpeedNormal
	}
}

// Rate returns the playback rate multiplier for the speed.
func (s Speed) Rate() float64 {
	switch s.Normalize() {
	case SpeedFast:
		return 1.25
	case SpeedSlow:
		return 0.8
	default:
		return 1.0
	}
}

// ParseSpeed parses a speed name, rejecting unknown names.
func ParseSpeed(s string) (Speed, error) {
	sp := Speed(strings.ToLower(strings.TrimSpace(s)))
	switch sp {
	case SpeedFast, SpeedNormal, SpeedSlow:
		return sp, nil
	case "":
		return SpeedNormal, nil
	default:
		return "", fmt.Errorf("invalid speed %q: must be one of fast, normal, slow", s)
	}
}

// UnmarshalText decodes a speed leniently.
func (s *Speed) UnmarshalText(b []byte) error {
	*s = Speed(strings.ToLower(string(b))).Normalize()
	return nil
}

// SynthesisRequest describes one utterance to synthesize.
type SynthesisRequest struct {
	Text    string
	VoiceID string
	Speed   Speed
	Whisper bool
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	// Name identifies the provider in logs and usage accounting.
	Name() string

	// Format is the container of the returned audio, used as the cache file
	// extension ("mp3", "wav").
	Format() string

	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// AudioPlayer plays encoded audio to completion.
type AudioPlayer interface {
	Play(ctx context.Context, audio []byte, format string) error
}
