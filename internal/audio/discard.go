package audio

import (
	"context"
	"sync/atomic"
)

// Discard satisfies the player contract without producing sound. It is used
// when playback is muted so synthesis still fills the cache.
type Discard struct {
	plays atomic.Int64
	bytes atomic.Int64
}

// NewDiscard returns a muted player.
func NewDiscard() *Discard {
	return &Discard{}
}

// Play records the call and returns immediately.
func (d *Discard) Play(ctx context.Context, audio []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(audio) == 0 {
		return ErrEmptyAudio
	}
	d.plays.Add(1)
	d.bytes.Add(int64(len(audio)))
	return nil
}

// Plays returns how many clips were accepted.
func (d *Discard) Plays() int64 {
	return d.plays.Load()
}

// Bytes returns the total size of accepted clips.
func (d *Discard) Bytes() int64 {
	return d.bytes.Load()
}

// Close is a no-op.
func (d *Discard) Close() error {
	return nil
}
