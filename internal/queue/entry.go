package queue

import (
	"time"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
	"github.com/google/uuid"
)

// Entry is one pending utterance. Entries are never modified once queued.
type Entry struct {
	ID        string          `json:"id,omitempty"`
	Text      string          `json:"text"`
	VoiceID   string          `json:"voiceId"`
	VoiceName string          `json:"voiceName"`
	Speed     ttypes.Speed    `json:"speed"`
	QueuedAt  time.Time       `json:"queuedAt"`
	Priority  ttypes.Priority `json:"priority"`
	Whisper   bool            `json:"whisper"`
}

// NewEntry returns an entry with a fresh id, normal priority and speed, and
// the current time.
func NewEntry(text, voiceID, voiceName string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Text:      text,
		VoiceID:   voiceID,
		VoiceName: voiceName,
		Speed:     ttypes.SpeedNormal,
		QueuedAt:  time.Now().UTC(),
		Priority:  ttypes.PriorityNormal,
	}
}

// Request converts the entry into a synthesis request.
func (e Entry) Request() ttypes.SynthesisRequest {
	return ttypes.SynthesisRequest{
		Text:    e.Text,
		VoiceID: e.VoiceID,
		Speed:   e.Speed,
		Whisper: e.Whisper,
	}
}
