package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/dgnsrekt/agentsay/internal/ttypes"
)

// Fingerprint derives the cache key of a synthesis request. Whisper mode is
// folded into the voice component, so a whispered and a normal rendering of
// the same text are distinct entries.
func Fingerprint(text, voiceID string, speed ttypes.Speed, whisper bool) string {
	if whisper {
		voiceID += ":whisper"
	}
	data := strings.Join([]string{text, voiceID, string(speed.Normalize())}, "|")
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// FingerprintRequest is Fingerprint for a synthesis request.
func FingerprintRequest(req ttypes.SynthesisRequest) string {
	return Fingerprint(req.Text, req.VoiceID, req.Speed, req.Whisper)
}

// validKey reports whether key is safe to use as a file name.
func validKey(key string) bool {
	if key == "" || len(key) > 128 {
		return false
	}
	for _, r := range key {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
