package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey indicates a hosted provider was selected without
	// credentials.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrUnknownProvider indicates an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown TTS provider")

	// ErrEmptyAudio indicates the provider answered without audio.
	ErrEmptyAudio = errors.New("provider returned no audio")
)

// ProviderError is a failed synthesis call with provider context.
type ProviderError struct {
	Provider string
	Status   int // HTTP status, 0 when the request never got an answer
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed if sent again:
// rate limiting, server errors and transport failures.
func (e *ProviderError) Retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests, e.Status >= http.StatusInternalServerError:
		return true
	case e.Status == 0 && e.Err != nil:
		return !errors.Is(e.Err, context.Canceled) && !errors.Is(e.Err, context.DeadlineExceeded)
	default:
		return false
	}
}
